package pipeline

import (
	"fmt"
	"math"
	"sort"

	"chemhits/domain/bioactivity"
	"chemhits/domain/core"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// SummarizeHits aggregates hit rows into one summary per compound: the number
// of defined activity values plus their median, mean, sample standard
// deviation, minimum and maximum. Compounds are ordered by identifier.
// Empty input yields an empty table that still carries the summary columns.
func SummarizeHits(hits *bioactivity.HitTable, col bioactivity.ActivityColumn) (*bioactivity.SummaryTable, error) {
	if _, ok := bioactivity.ParseActivityColumn(string(col)); !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownActivityColumn, col)
	}
	if hits.Len() == 0 {
		return bioactivity.NewSummaryTable(nil), nil
	}

	groups := make(map[string][]float64)
	order := make([]string, 0)
	for _, h := range hits.Rows {
		if _, seen := groups[h.MoleculeID]; !seen {
			groups[h.MoleculeID] = []float64{}
			order = append(order, h.MoleculeID)
		}
		if v, ok := h.Activity(col); ok {
			groups[h.MoleculeID] = append(groups[h.MoleculeID], v)
		}
	}
	sort.Strings(order)

	rows := make([]bioactivity.Summary, 0, len(order))
	for _, id := range order {
		rows = append(rows, summarize(id, groups[id]))
	}
	return bioactivity.NewSummaryTable(rows), nil
}

// summarize computes the statistics of one compound. Every statistic of an
// empty group is NaN; the standard deviation is NaN below two values.
func summarize(moleculeID string, values []float64) bioactivity.Summary {
	s := bioactivity.Summary{
		MoleculeID:       moleculeID,
		MeasurementCount: len(values),
		MedianActivity:   math.NaN(),
		MeanActivity:     math.NaN(),
		StdActivity:      math.NaN(),
		MinActivity:      math.NaN(),
		MaxActivity:      math.NaN(),
	}
	if len(values) == 0 {
		return s
	}

	s.MedianActivity, _ = stats.Median(values)
	s.MinActivity, _ = stats.Min(values)
	s.MaxActivity, _ = stats.Max(values)

	if len(values) < 2 {
		s.MeanActivity = values[0]
		return s
	}
	// gonum's StdDev is the unbiased (n-1) estimator
	s.MeanActivity, s.StdActivity = stat.MeanStdDev(values, nil)
	return s
}
