package pipeline

import (
	"fmt"

	"chemhits/domain/bioactivity"
	"chemhits/domain/core"
)

// IdentifyHits selects rows whose activity column is defined and at least
// the cutoff, then keeps only compounds with at least MinReplicates such rows.
// Surviving rows are tagged is_hit. When nothing survives, an empty table
// with the input's columns is returned.
func IdentifyHits(t *bioactivity.Table, policy HitPolicy) (*bioactivity.HitTable, error) {
	if _, ok := bioactivity.ParseActivityColumn(string(policy.ActivityColumn)); !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownActivityColumn, policy.ActivityColumn)
	}

	columns := []string{}
	if t != nil {
		columns = append(columns, t.Columns...)
	}

	passing := make([]bioactivity.Measurement, 0, t.Len())
	counts := make(map[string]int)
	if t != nil {
		for _, r := range t.Rows {
			v, ok := r.Activity(policy.ActivityColumn)
			if !ok || v < policy.Cutoff {
				continue
			}
			passing = append(passing, r)
			counts[r.MoleculeID]++
		}
	}

	hits := make([]bioactivity.Hit, 0, len(passing))
	for _, r := range passing {
		if counts[r.MoleculeID] < policy.MinReplicates {
			continue
		}
		hits = append(hits, bioactivity.Hit{Measurement: r.Clone(), IsHit: true})
	}

	if len(hits) == 0 {
		return &bioactivity.HitTable{Columns: columns, Rows: []bioactivity.Hit{}}, nil
	}
	return &bioactivity.HitTable{
		Columns: appendMissing(columns, bioactivity.ColIsHit),
		Rows:    hits,
	}, nil
}
