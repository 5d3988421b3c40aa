package stage

import (
	"encoding/json"

	"chemhits/domain/core"
)

// StageName represents a named stage in the pipeline
type StageName string

// StageKind categorizes stages by function
type StageKind string

const (
	StageKindClean     StageKind = "clean"     // drops unusable rows
	StageKindTransform StageKind = "transform" // rewrites or derives columns
	StageKindFilter    StageKind = "filter"    // applies inclusion policy
	StageKindAggregate StageKind = "aggregate" // collapses groups
	StageKindDecision  StageKind = "decision"  // hit calling and labelling
)

// Normalizer stages, in execution order
const (
	StageNumericCoercion StageName = "numeric_coercion"
	StageUnitConversion  StageName = "unit_conversion"
	StageRangeFilter     StageName = "range_filter"
	StagePotency         StageName = "potency_transform"
	StageTypeFilter      StageName = "measurement_type_filter"
	StageAssayFilter     StageName = "assay_type_filter"
	StageConfidence      StageName = "confidence_filter"
	StageAggregation     StageName = "aggregation"
	StageProjection      StageName = "projection"
)

// Analysis stages
const (
	StageHitIdentification StageName = "hit_identification"
	StageSummarization     StageName = "hit_summarization"
	StageClassification    StageName = "hit_classification"
)

// StageSpec defines a single stage in the pipeline
type StageSpec struct {
	Name StageName `json:"name"`
	Kind StageKind `json:"kind"`
}

// NormalizerPlan is the fixed stage order of the normalizer. Later stages
// assume the cleanups of earlier ones, so the order is part of the contract.
var NormalizerPlan = []StageSpec{
	{Name: StageNumericCoercion, Kind: StageKindClean},
	{Name: StageUnitConversion, Kind: StageKindTransform},
	{Name: StageRangeFilter, Kind: StageKindClean},
	{Name: StagePotency, Kind: StageKindTransform},
	{Name: StageTypeFilter, Kind: StageKindFilter},
	{Name: StageAssayFilter, Kind: StageKindFilter},
	{Name: StageConfidence, Kind: StageKindFilter},
	{Name: StageAggregation, Kind: StageKindAggregate},
	{Name: StageProjection, Kind: StageKindTransform},
}

// StageResult represents the row accounting of one stage execution
type StageResult struct {
	StageName StageName `json:"stage_name"`
	Kind      StageKind `json:"kind"`
	RowsIn    int       `json:"rows_in"`
	RowsOut   int       `json:"rows_out"`
	Columns   []string  `json:"columns"`
	Duration  int64     `json:"duration_us"` // microseconds
}

// Dropped returns how many rows the stage removed
func (r StageResult) Dropped() int {
	return r.RowsIn - r.RowsOut
}

// PipelineResult collects the stage results of one run
type PipelineResult struct {
	Results []StageResult   `json:"results"`
	Overall PipelineSummary `json:"overall"`
}

// PipelineSummary provides high-level pipeline statistics
type PipelineSummary struct {
	TotalStages   int   `json:"total_stages"`
	RowsIn        int   `json:"rows_in"`
	RowsOut       int   `json:"rows_out"`
	TotalDuration int64 `json:"total_duration_us"`
}

// NewPipelineResult creates an empty pipeline result
func NewPipelineResult() *PipelineResult {
	return &PipelineResult{Results: make([]StageResult, 0)}
}

// AddResult adds a stage result and updates the summary
func (r *PipelineResult) AddResult(result StageResult) {
	if len(r.Results) == 0 {
		r.Overall.RowsIn = result.RowsIn
	}
	r.Results = append(r.Results, result)
	r.Overall.TotalStages++
	r.Overall.RowsOut = result.RowsOut
	r.Overall.TotalDuration += result.Duration
}

// Get returns the result for a stage, if it ran
func (r *PipelineResult) Get(name StageName) (StageResult, bool) {
	for _, res := range r.Results {
		if res.StageName == name {
			return res, true
		}
	}
	return StageResult{}, false
}

// PlanHash computes a deterministic hash of a stage order.
// Unlike a set hash the order is kept, since reordering changes results.
func PlanHash(plan []StageSpec) core.Hash {
	data, _ := json.Marshal(plan)
	return core.NewHash(data)
}
