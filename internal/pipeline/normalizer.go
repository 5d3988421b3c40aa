package pipeline

import (
	"time"

	"chemhits/adapters/coercer"
	"chemhits/domain/bioactivity"
	"chemhits/domain/stage"
	"chemhits/internal"
)

// Normalizer turns raw supplier records into a clean, nanomolar,
// potency-transformed table with one row per (molecule, standard type).
// It is a pure function of its input and policy.
type Normalizer struct {
	policy  NormalizationPolicy
	coercer *coercer.NumericCoercer
	logger  *internal.Logger
}

// NewNormalizer creates a normalizer; a nil logger uses internal.DefaultLogger
func NewNormalizer(policy NormalizationPolicy, logger *internal.Logger) *Normalizer {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Normalizer{
		policy:  policy,
		coercer: coercer.NewNumericCoercer(coercer.DefaultCoercionConfig()),
		logger:  logger.WithComponent("Normalizer"),
	}
}

// Normalize runs every stage of stage.NormalizerPlan in order and returns
// the final table together with per-stage row accounting
func (n *Normalizer) Normalize(raw *bioactivity.RawTable) (*bioactivity.Table, *stage.PipelineResult) {
	result := stage.NewPipelineResult()

	if n.logger.GetLevel() >= internal.LogLevelDebug && raw.Len() > 0 {
		values := make([]interface{}, 0, raw.Len())
		for _, r := range raw.Records {
			values = append(values, r.StandardValue)
		}
		n.logger.Debug("standard_value: %s", n.coercer.Analyze(values))
	}

	start := time.Now()
	table := CoerceNumeric(raw, n.coercer)
	n.record(result, stage.NormalizerPlan[0], raw.Len(), table, start)

	steps := []func(*bioactivity.Table) *bioactivity.Table{
		func(t *bioactivity.Table) *bioactivity.Table { return ConvertUnits(t, n.policy.UnitFactors) },
		func(t *bioactivity.Table) *bioactivity.Table {
			return FilterValueRange(t, n.policy.MinValueNM, n.policy.MaxValueNM)
		},
		AddPotency,
		func(t *bioactivity.Table) *bioactivity.Table { return FilterMeasurementType(t, n.policy.MeasurementTypes) },
		func(t *bioactivity.Table) *bioactivity.Table { return FilterAssayType(t, n.policy.AssayTypes) },
		func(t *bioactivity.Table) *bioactivity.Table { return FilterConfidence(t, n.policy.MinConfidence) },
		AggregateDuplicates,
		func(t *bioactivity.Table) *bioactivity.Table { return Project(t, bioactivity.CanonicalColumns) },
	}

	for i, step := range steps {
		spec := stage.NormalizerPlan[i+1]
		if spec.Name == stage.StageAggregation {
			n.logger.Debug("before aggregation: %v", table.Columns)
		}

		start := time.Now()
		rowsIn := table.Len()
		table = step(table)
		n.record(result, spec, rowsIn, table, start)

		if spec.Name == stage.StageAggregation {
			n.logger.Debug("after aggregation: %v", table.Columns)
		}
	}

	n.logger.Info("normalized %d raw records into %d rows", raw.Len(), table.Len())
	return table, result
}

func (n *Normalizer) record(result *stage.PipelineResult, spec stage.StageSpec, rowsIn int, out *bioactivity.Table, start time.Time) {
	res := stage.StageResult{
		StageName: spec.Name,
		Kind:      spec.Kind,
		RowsIn:    rowsIn,
		RowsOut:   out.Len(),
		Columns:   append([]string(nil), out.Columns...),
		Duration:  time.Since(start).Microseconds(),
	}
	result.AddResult(res)
	n.logger.Trace("%s: %d -> %d rows", spec.Name, res.RowsIn, res.RowsOut)
}
