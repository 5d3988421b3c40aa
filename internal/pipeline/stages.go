package pipeline

import (
	"math"
	"sort"

	"chemhits/adapters/coercer"
	"chemhits/domain/bioactivity"

	"github.com/montanaflynn/stats"
)

// Every stage below returns a new table. Input tables, including their
// optional values, are never modified.

// CoerceNumeric converts raw records into measurements, dropping records
// whose standard_value cannot be parsed as a number.
func CoerceNumeric(raw *bioactivity.RawTable, c *coercer.NumericCoercer) *bioactivity.Table {
	rows := make([]bioactivity.Measurement, 0, raw.Len())
	if raw == nil {
		return bioactivity.NewTable(bioactivity.RawColumns, rows)
	}

	for _, rec := range raw.Records {
		value, ok := c.Coerce(rec.StandardValue)
		if !ok {
			continue
		}
		m := bioactivity.Measurement{
			MoleculeID:      rec.MoleculeID,
			CanonicalSmiles: rec.CanonicalSmiles,
			StandardType:    rec.StandardType,
			StandardValue:   value,
			StandardUnits:   rec.StandardUnits,
			AssayType:       rec.AssayType,
		}
		if raw.HasConfidenceScore && rec.ConfidenceScore != nil {
			score := *rec.ConfidenceScore
			m.ConfidenceScore = &score
		}
		rows = append(rows, m)
	}
	return bioactivity.NewTable(raw.Columns(), rows)
}

// ConvertUnits rescales values to nanomolar. Records with a unit missing
// from factors are dropped; a unit that cannot be inverted cannot be trusted.
func ConvertUnits(t *bioactivity.Table, factors map[string]float64) *bioactivity.Table {
	rows := make([]bioactivity.Measurement, 0, t.Len())
	for _, r := range t.Rows {
		factor, ok := factors[r.StandardUnits]
		if !ok {
			continue
		}
		m := r.Clone()
		m.StandardValue = r.StandardValue * factor
		m.StandardUnits = bioactivity.UnitNanomolar
		rows = append(rows, m)
	}
	return bioactivity.NewTable(t.Columns, rows)
}

// FilterValueRange keeps values strictly inside (lo, hi); the bounds themselves are excluded
func FilterValueRange(t *bioactivity.Table, lo, hi float64) *bioactivity.Table {
	return filterRows(t, func(m bioactivity.Measurement) bool {
		return m.StandardValue > lo && m.StandardValue < hi
	})
}

// PActivity converts a nanomolar value to -log10(molar)
func PActivity(valueNM float64) float64 {
	return -math.Log10(valueNM * 1e-9)
}

// AddPotency derives pActivity for every positive value and copies it into
// pIC50 or pKi according to the measurement type. Non-positive values are dropped.
func AddPotency(t *bioactivity.Table) *bioactivity.Table {
	rows := make([]bioactivity.Measurement, 0, t.Len())
	for _, r := range t.Rows {
		if !(r.StandardValue > 0) {
			continue
		}
		m := r.Clone()
		p := PActivity(r.StandardValue)
		m.PActivity = bioactivity.Float(p)
		m.PIC50 = nil
		m.PKi = nil
		switch r.StandardType {
		case bioactivity.TypeIC50:
			m.PIC50 = bioactivity.Float(p)
		case bioactivity.TypeKi:
			m.PKi = bioactivity.Float(p)
		}
		rows = append(rows, m)
	}
	return bioactivity.NewTable(appendMissing(t.Columns, bioactivity.ColPActivity, bioactivity.ColPIC50, bioactivity.ColPKi), rows)
}

// FilterMeasurementType keeps only the listed standard types
func FilterMeasurementType(t *bioactivity.Table, types []string) *bioactivity.Table {
	allowed := toSet(types)
	return filterRows(t, func(m bioactivity.Measurement) bool {
		return allowed[m.StandardType]
	})
}

// FilterAssayType keeps only the listed assay categories
func FilterAssayType(t *bioactivity.Table, assayTypes []string) *bioactivity.Table {
	allowed := toSet(assayTypes)
	return filterRows(t, func(m bioactivity.Measurement) bool {
		return allowed[m.AssayType]
	})
}

// FilterConfidence keeps rows scoring at least minScore. Without a
// confidence column the stage passes every row; with one, rows lacking a
// score fail the comparison and are dropped.
func FilterConfidence(t *bioactivity.Table, minScore int) *bioactivity.Table {
	if !t.HasColumn(bioactivity.ColConfidenceScore) {
		return t.Clone()
	}
	return filterRows(t, func(m bioactivity.Measurement) bool {
		return m.ConfidenceScore != nil && *m.ConfidenceScore >= minScore
	})
}

// AggregationColumns is the column set left after collapsing replicates
var AggregationColumns = []string{
	bioactivity.ColMoleculeID,
	bioactivity.ColStandardType,
	bioactivity.ColStandardValue,
	bioactivity.ColPIC50,
	bioactivity.ColPKi,
}

type groupKey struct {
	moleculeID   string
	standardType string
}

// AggregateDuplicates collapses rows to one per (molecule, standard type),
// taking the median of standard_value, pIC50 and pKi. Undefined potencies are
// skipped; a group with none stays undefined. Groups come out sorted by key
// and every other column is dropped, so aggregating twice is a no-op.
func AggregateDuplicates(t *bioactivity.Table) *bioactivity.Table {
	groups := make(map[groupKey][]bioactivity.Measurement)
	for _, r := range t.Rows {
		k := groupKey{moleculeID: r.MoleculeID, standardType: r.StandardType}
		groups[k] = append(groups[k], r)
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].moleculeID != keys[j].moleculeID {
			return keys[i].moleculeID < keys[j].moleculeID
		}
		return keys[i].standardType < keys[j].standardType
	})

	rows := make([]bioactivity.Measurement, 0, len(keys))
	for _, k := range keys {
		members := groups[k]
		values := make([]float64, 0, len(members))
		var pic50s, pkis []float64
		for _, m := range members {
			values = append(values, m.StandardValue)
			if m.PIC50 != nil {
				pic50s = append(pic50s, *m.PIC50)
			}
			if m.PKi != nil {
				pkis = append(pkis, *m.PKi)
			}
		}

		value, _ := median(values)
		rows = append(rows, bioactivity.Measurement{
			MoleculeID:    k.moleculeID,
			StandardType:  k.standardType,
			StandardValue: value,
			PIC50:         optionalMedian(pic50s),
			PKi:           optionalMedian(pkis),
		})
	}
	return bioactivity.NewTable(AggregationColumns, rows)
}

// Project restricts the column list to the wanted columns that are present,
// in the order given by wanted
func Project(t *bioactivity.Table, wanted []string) *bioactivity.Table {
	cols := make([]string, 0, len(wanted))
	for _, c := range wanted {
		if t.HasColumn(c) {
			cols = append(cols, c)
		}
	}
	out := t.Clone()
	out.Columns = cols
	return out
}

func filterRows(t *bioactivity.Table, keep func(bioactivity.Measurement) bool) *bioactivity.Table {
	rows := make([]bioactivity.Measurement, 0, t.Len())
	for _, r := range t.Rows {
		if keep(r) {
			rows = append(rows, r.Clone())
		}
	}
	return bioactivity.NewTable(t.Columns, rows)
}

func median(values []float64) (float64, bool) {
	if len(values) == 0 {
		return math.NaN(), false
	}
	m, err := stats.Median(values)
	if err != nil {
		return math.NaN(), false
	}
	return m, true
}

func optionalMedian(values []float64) *float64 {
	m, ok := median(values)
	if !ok {
		return nil
	}
	return &m
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func appendMissing(columns []string, extra ...string) []string {
	out := append([]string(nil), columns...)
	for _, e := range extra {
		found := false
		for _, c := range out {
			if c == e {
				found = true
				break
			}
		}
		if !found {
			out = append(out, e)
		}
	}
	return out
}
