package bioactivity

import (
	"encoding/json"
	"math"
)

// Hit is a measurement that cleared the potency cutoff and replicate threshold
type Hit struct {
	Measurement
	IsHit bool `json:"is_hit"`
}

// HitTable is the row-level output of hit identification
type HitTable struct {
	Columns []string `json:"columns"`
	Rows    []Hit    `json:"rows"`
}

// Len returns the number of hit rows
func (t *HitTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Summary column names
const (
	ColMeasurementCount = "measurement_count"
	ColMedianActivity   = "median_activity"
	ColMeanActivity     = "mean_activity"
	ColStdActivity      = "std_activity"
	ColMinActivity      = "min_activity"
	ColMaxActivity      = "max_activity"
	ColPassActivity     = "pass_activity"
	ColPassStd          = "pass_std"
	ColPassN            = "pass_n"
	ColHitStrength      = "hit_strength"
)

// SummaryColumns is present on every summary table, including empty ones
var SummaryColumns = []string{
	ColMoleculeID,
	ColMeasurementCount,
	ColMedianActivity,
	ColMeanActivity,
	ColStdActivity,
	ColMinActivity,
	ColMaxActivity,
}

// ClassifiedColumns is the output file layout
var ClassifiedColumns = append(append([]string(nil), SummaryColumns...),
	ColPassActivity, ColPassStd, ColPassN, ColHitStrength)

// Summary aggregates one compound's hit rows. Statistics that are undefined
// for the group (std with fewer than two values) are NaN.
type Summary struct {
	MoleculeID       string  `json:"molecule_chembl_id"`
	MeasurementCount int     `json:"measurement_count"`
	MedianActivity   float64 `json:"median_activity"`
	MeanActivity     float64 `json:"mean_activity"`
	StdActivity      float64 `json:"std_activity"`
	MinActivity      float64 `json:"min_activity"`
	MaxActivity      float64 `json:"max_activity"`
}

// HasStd reports whether the standard deviation is defined
func (s Summary) HasStd() bool {
	return !math.IsNaN(s.StdActivity)
}

// SummaryTable holds one row per compound
type SummaryTable struct {
	Columns []string  `json:"columns"`
	Rows    []Summary `json:"rows"`
}

// NewSummaryTable creates a summary table with the fixed column set
func NewSummaryTable(rows []Summary) *SummaryTable {
	if rows == nil {
		rows = []Summary{}
	}
	return &SummaryTable{Columns: append([]string(nil), SummaryColumns...), Rows: rows}
}

// Len returns the number of compounds
func (t *SummaryTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HitStrength is the categorical confidence label of a compound
type HitStrength string

const (
	StrengthStrong    HitStrength = "strong"
	StrengthWeak      HitStrength = "weak"
	StrengthAmbiguous HitStrength = "ambiguous"
	StrengthNonHit    HitStrength = "non-hit"
)

// ClassifiedSummary is a summary with its label and the flags that produced it
type ClassifiedSummary struct {
	Summary
	PassActivity bool        `json:"pass_activity"`
	PassStd      bool        `json:"pass_std"`
	PassN        bool        `json:"pass_n"`
	HitStrength  HitStrength `json:"hit_strength"`
}

// ClassifiedTable is the final pipeline output
type ClassifiedTable struct {
	Columns []string            `json:"columns"`
	Rows    []ClassifiedSummary `json:"rows"`
}

// NewClassifiedTable creates a classified table with the output column set
func NewClassifiedTable(rows []ClassifiedSummary) *ClassifiedTable {
	if rows == nil {
		rows = []ClassifiedSummary{}
	}
	return &ClassifiedTable{Columns: append([]string(nil), ClassifiedColumns...), Rows: rows}
}

// Len returns the number of compounds
func (t *ClassifiedTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// CountByStrength tallies compounds per label
func (t *ClassifiedTable) CountByStrength() map[HitStrength]int {
	counts := map[HitStrength]int{}
	for _, r := range t.Rows {
		counts[r.HitStrength]++
	}
	return counts
}

// summaryJSON mirrors Summary with nullable statistics; encoding/json rejects NaN
type summaryJSON struct {
	MoleculeID       string   `json:"molecule_chembl_id"`
	MeasurementCount int      `json:"measurement_count"`
	MedianActivity   *float64 `json:"median_activity"`
	MeanActivity     *float64 `json:"mean_activity"`
	StdActivity      *float64 `json:"std_activity"`
	MinActivity      *float64 `json:"min_activity"`
	MaxActivity      *float64 `json:"max_activity"`
}

func (s Summary) toJSON() summaryJSON {
	return summaryJSON{
		MoleculeID:       s.MoleculeID,
		MeasurementCount: s.MeasurementCount,
		MedianActivity:   finite(s.MedianActivity),
		MeanActivity:     finite(s.MeanActivity),
		StdActivity:      finite(s.StdActivity),
		MinActivity:      finite(s.MinActivity),
		MaxActivity:      finite(s.MaxActivity),
	}
}

// MarshalJSON encodes undefined statistics as null
func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.toJSON())
}

// MarshalJSON is declared explicitly so the embedded Summary method is not promoted
func (c ClassifiedSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		summaryJSON
		PassActivity bool        `json:"pass_activity"`
		PassStd      bool        `json:"pass_std"`
		PassN        bool        `json:"pass_n"`
		HitStrength  HitStrength `json:"hit_strength"`
	}{
		summaryJSON:  c.Summary.toJSON(),
		PassActivity: c.PassActivity,
		PassStd:      c.PassStd,
		PassN:        c.PassN,
		HitStrength:  c.HitStrength,
	})
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
