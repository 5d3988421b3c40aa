package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"chemhits/domain/bioactivity"
	"chemhits/domain/core"
	"chemhits/domain/run"
	"chemhits/domain/stage"
	"chemhits/internal"
	"chemhits/internal/pipeline"
	"chemhits/ports"
)

// CodeVersion is recorded in run fingerprints
const CodeVersion = "chemhits/1.0.0"

// Run outcomes reported to observers
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// RunObserver receives run-level measurements, typically for metrics
type RunObserver interface {
	ObserveRun(source, outcome string, duration time.Duration)
	ObserveCompounds(counts map[bioactivity.HitStrength]int)
}

// ServiceConfig configures a hit-calling service
type ServiceConfig struct {
	Policy    pipeline.Policy
	OutputDir string // empty disables writing outputs and the manifest
}

// HitCallingService runs fetch, normalization, hit calling and output
// writing for one target at a time
type HitCallingService struct {
	supplier ports.RecordSupplier
	writers  []ports.OutputWriter
	config   ServiceConfig
	observer RunObserver
	logger   *internal.Logger
}

// RunResult holds everything a run produced
type RunResult struct {
	Manifest *run.RunManifest `json:"manifest"`
	Report   *pipeline.Report `json:"report"`
}

// NewHitCallingService creates the service. supplier may be nil when only
// RunRaw is used.
func NewHitCallingService(supplier ports.RecordSupplier, writers []ports.OutputWriter, config ServiceConfig, logger *internal.Logger) (*HitCallingService, error) {
	if err := config.Policy.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &HitCallingService{
		supplier: supplier,
		writers:  writers,
		config:   config,
		logger:   logger,
	}, nil
}

// WithObserver attaches a run observer
func (s *HitCallingService) WithObserver(o RunObserver) *HitCallingService {
	s.observer = o
	return s
}

// Policy returns the policy runs are executed with
func (s *HitCallingService) Policy() pipeline.Policy {
	return s.config.Policy
}

// Run fetches the target's records from the supplier and calls hits on them
func (s *HitCallingService) Run(ctx context.Context, q ports.ActivityQuery) (*RunResult, error) {
	start := time.Now()
	if s.supplier == nil {
		return nil, fmt.Errorf("no record supplier configured")
	}

	loader := NewLoader(s.supplier, s.logger)
	if _, err := loader.Fetch(ctx, q); err != nil {
		s.observe(s.supplier.Name(), OutcomeError, start, nil)
		return nil, err
	}
	raw, err := loader.ToTable()
	if err != nil {
		return nil, err
	}

	q = loader.Query()
	return s.process(ctx, q.TargetID, q.StandardTypes, s.supplier.Name(), raw, start)
}

// RunRaw calls hits on records the caller already holds
func (s *HitCallingService) RunRaw(ctx context.Context, target core.TargetID, source string, raw *bioactivity.RawTable) (*RunResult, error) {
	return s.process(ctx, target, nil, source, raw, time.Now())
}

func (s *HitCallingService) process(ctx context.Context, target core.TargetID, types []string, source string, raw *bioactivity.RawTable, start time.Time) (*RunResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	analyzer, err := pipeline.NewAnalyzer(raw, s.config.Policy, s.logger)
	if err != nil {
		s.observe(source, OutcomeError, start, nil)
		return nil, err
	}
	report, err := analyzer.Run()
	if err != nil {
		s.observe(source, OutcomeError, start, nil)
		return nil, err
	}

	manifest := s.buildManifest(target, types, source, raw, report)
	if s.config.OutputDir != "" {
		if err := s.writeOutputs(target, report, manifest); err != nil {
			s.observe(source, OutcomeError, start, nil)
			return nil, err
		}
	}

	counts := report.Classified.CountByStrength()
	s.observe(source, OutcomeSuccess, start, counts)
	s.logger.Info("run %s for %s finished in %s", manifest.RunID, target, time.Since(start).Round(time.Millisecond))
	return &RunResult{Manifest: manifest, Report: report}, nil
}

func (s *HitCallingService) buildManifest(target core.TargetID, types []string, source string, raw *bioactivity.RawTable, report *pipeline.Report) *run.RunManifest {
	compounds := make(map[string]int)
	for strength, n := range report.Classified.CountByStrength() {
		compounds[string(strength)] = n
	}

	return &run.RunManifest{
		RunID:          core.NewRunID(),
		TargetID:       target,
		StandardTypes:  types,
		Source:         source,
		RawRecords:     raw.Len(),
		NormalizedRows: report.Normalized.Len(),
		HitRows:        report.Hits.Len(),
		Compounds:      compounds,
		Policy:         s.config.Policy.Params(),
		Fingerprint: run.NewRunFingerprint(
			target,
			InputHash(raw),
			s.config.Policy.Hash(),
			stage.PlanHash(stage.NormalizerPlan),
			CodeVersion,
		),
		CreatedAt: core.Now(),
	}
}

func (s *HitCallingService) writeOutputs(target core.TargetID, report *pipeline.Report, manifest *run.RunManifest) error {
	if err := os.MkdirAll(s.config.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, w := range s.writers {
		path, err := w.Write(s.config.OutputDir, target, report.Classified)
		if err != nil {
			return fmt.Errorf("failed to write %s output: %w", w.Format(), err)
		}
		manifest.Outputs = append(manifest.Outputs, path)
		s.logger.Debug("wrote %s", path)
	}

	path, err := manifest.WriteFile(s.config.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to write run manifest: %w", err)
	}
	s.logger.Debug("wrote %s", path)
	return nil
}

func (s *HitCallingService) observe(source, outcome string, start time.Time, counts map[bioactivity.HitStrength]int) {
	if s.observer == nil {
		return
	}
	s.observer.ObserveRun(source, outcome, time.Since(start))
	if counts != nil {
		s.observer.ObserveCompounds(counts)
	}
}
