package pipeline

import (
	"math"

	"chemhits/domain/bioactivity"
)

// ClassifyHitStrength labels each compound summary.
//
// The three flags are computed independently and kept in the output:
//   - pass_activity: median >= StrongCutoff
//   - pass_std:      std defined and <= MaxStd
//   - pass_n:        count >= MinReplicates
//
// All three passing gives "strong". Otherwise a median of at least
// WeakCutoff gives "weak". The "ambiguous" rule below asks for the same
// median on a row still labelled "non-hit", which the "weak" rule has
// already claimed, so with any policy it never fires. It stays as documented
// until the intended meaning of "ambiguous" is settled.
func ClassifyHitStrength(summaries *bioactivity.SummaryTable, policy ClassificationPolicy) *bioactivity.ClassifiedTable {
	if summaries.Len() == 0 {
		return bioactivity.NewClassifiedTable(nil)
	}

	rows := make([]bioactivity.ClassifiedSummary, 0, summaries.Len())
	for _, s := range summaries.Rows {
		rows = append(rows, classify(s, policy))
	}
	return bioactivity.NewClassifiedTable(rows)
}

func classify(s bioactivity.Summary, policy ClassificationPolicy) bioactivity.ClassifiedSummary {
	c := bioactivity.ClassifiedSummary{
		Summary:     s,
		HitStrength: bioactivity.StrengthNonHit,
	}

	c.PassActivity = s.MedianActivity >= policy.StrongCutoff
	c.PassStd = !math.IsNaN(s.StdActivity) && s.StdActivity <= policy.MaxStd
	c.PassN = s.MeasurementCount >= policy.MinReplicates

	strong := c.PassActivity && c.PassStd && c.PassN
	weak := s.MedianActivity >= policy.WeakCutoff && !strong

	if strong {
		c.HitStrength = bioactivity.StrengthStrong
	}
	if weak {
		c.HitStrength = bioactivity.StrengthWeak
	}
	if s.MedianActivity >= policy.WeakCutoff && c.HitStrength == bioactivity.StrengthNonHit {
		c.HitStrength = bioactivity.StrengthAmbiguous
	}
	return c
}
