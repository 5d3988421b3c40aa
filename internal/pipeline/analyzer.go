package pipeline

import (
	"time"

	"chemhits/domain/bioactivity"
	"chemhits/domain/stage"
	"chemhits/internal"
)

// Analyzer owns one normalized table and runs hit calling over it.
// It is built from a raw table and holds no reference to where the
// records came from.
type Analyzer struct {
	policy     Policy
	normalized *bioactivity.Table
	stages     *stage.PipelineResult
	logger     *internal.Logger
}

// Report carries every intermediate table of a run
type Report struct {
	Normalized *bioactivity.Table           `json:"normalized"`
	Hits       *bioactivity.HitTable        `json:"hits"`
	Summary    *bioactivity.SummaryTable    `json:"summary"`
	Classified *bioactivity.ClassifiedTable `json:"classified"`
	Stages     *stage.PipelineResult        `json:"stages"`
}

// NewAnalyzer validates the policy and normalizes raw immediately
func NewAnalyzer(raw *bioactivity.RawTable, policy Policy, logger *internal.Logger) (*Analyzer, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if policy.Classification.WeakCutoff > policy.Classification.StrongCutoff {
		logger.Warn("weak cutoff %.2f is above strong cutoff %.2f", policy.Classification.WeakCutoff, policy.Classification.StrongCutoff)
	}

	normalized, stages := NewNormalizer(policy.Normalization, logger).Normalize(raw)
	return &Analyzer{
		policy:     policy,
		normalized: normalized,
		stages:     stages,
		logger:     logger.WithComponent("Analyzer"),
	}, nil
}

// Normalized returns a copy of the normalized table
func (a *Analyzer) Normalized() *bioactivity.Table {
	return a.normalized.Clone()
}

// IdentifyHits applies the hit policy to the normalized table
func (a *Analyzer) IdentifyHits(policy HitPolicy) (*bioactivity.HitTable, error) {
	return IdentifyHits(a.normalized, policy)
}

// SummarizeHits aggregates hit rows per compound on the given column
func (a *Analyzer) SummarizeHits(hits *bioactivity.HitTable, col bioactivity.ActivityColumn) (*bioactivity.SummaryTable, error) {
	return SummarizeHits(hits, col)
}

// ClassifyHitStrength labels compound summaries
func (a *Analyzer) ClassifyHitStrength(summaries *bioactivity.SummaryTable, policy ClassificationPolicy) *bioactivity.ClassifiedTable {
	return ClassifyHitStrength(summaries, policy)
}

// Run executes identification, summarization and classification with the
// analyzer's policy
func (a *Analyzer) Run() (*Report, error) {
	stages := stage.NewPipelineResult()
	for _, r := range a.stages.Results {
		stages.AddResult(r)
	}

	start := time.Now()
	hits, err := a.IdentifyHits(a.policy.Hits)
	if err != nil {
		return nil, err
	}
	stages.AddResult(stage.StageResult{
		StageName: stage.StageHitIdentification,
		Kind:      stage.StageKindDecision,
		RowsIn:    a.normalized.Len(),
		RowsOut:   hits.Len(),
		Columns:   append([]string(nil), hits.Columns...),
		Duration:  time.Since(start).Microseconds(),
	})

	start = time.Now()
	summary, err := a.SummarizeHits(hits, a.policy.Hits.ActivityColumn)
	if err != nil {
		return nil, err
	}
	stages.AddResult(stage.StageResult{
		StageName: stage.StageSummarization,
		Kind:      stage.StageKindAggregate,
		RowsIn:    hits.Len(),
		RowsOut:   summary.Len(),
		Columns:   append([]string(nil), summary.Columns...),
		Duration:  time.Since(start).Microseconds(),
	})

	start = time.Now()
	classified := a.ClassifyHitStrength(summary, a.policy.Classification)
	stages.AddResult(stage.StageResult{
		StageName: stage.StageClassification,
		Kind:      stage.StageKindDecision,
		RowsIn:    summary.Len(),
		RowsOut:   classified.Len(),
		Columns:   append([]string(nil), classified.Columns...),
		Duration:  time.Since(start).Microseconds(),
	})

	counts := classified.CountByStrength()
	a.logger.Info("%d hit rows, %d compounds (strong=%d weak=%d ambiguous=%d non-hit=%d)",
		hits.Len(), classified.Len(),
		counts[bioactivity.StrengthStrong], counts[bioactivity.StrengthWeak],
		counts[bioactivity.StrengthAmbiguous], counts[bioactivity.StrengthNonHit])

	return &Report{
		Normalized: a.Normalized(),
		Hits:       hits,
		Summary:    summary,
		Classified: classified,
		Stages:     stages,
	}, nil
}
