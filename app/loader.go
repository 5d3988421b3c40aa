package app

import (
	"context"
	"fmt"
	"strconv"

	"chemhits/domain/bioactivity"
	"chemhits/domain/core"
	"chemhits/internal"
	apperrors "chemhits/internal/errors"
	"chemhits/ports"
)

// Loader fetches raw records for one query and holds them until they are
// converted to a table. A Loader is not safe for concurrent use.
type Loader struct {
	supplier ports.RecordSupplier
	query    ports.ActivityQuery
	raw      *bioactivity.RawTable
	logger   *internal.Logger
}

// NewLoader creates a loader over a supplier
func NewLoader(supplier ports.RecordSupplier, logger *internal.Logger) *Loader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Loader{supplier: supplier, logger: logger.WithComponent("Loader")}
}

// Fetch retrieves records for q and keeps at most q.Limit of them. A failed
// fetch leaves the loader without records.
func (l *Loader) Fetch(ctx context.Context, q ports.ActivityQuery) (*bioactivity.RawTable, error) {
	q = q.WithDefaults()
	l.raw = nil

	raw, err := l.supplier.FetchBioactivities(ctx, q)
	if err != nil {
		return nil, apperrors.Wrapf(err, "fetch %s from %s", q.TargetID, l.supplier.Name())
	}
	if raw == nil {
		raw = &bioactivity.RawTable{}
	}
	if len(raw.Records) > q.Limit {
		l.logger.Debug("truncating %d records to %d", len(raw.Records), q.Limit)
		raw = &bioactivity.RawTable{
			Records:            raw.Records[:q.Limit:q.Limit],
			HasConfidenceScore: raw.HasConfidenceScore,
		}
	}

	l.query = q
	l.raw = raw
	l.logger.Info("%d raw records for %s (source %s)", raw.Len(), q.TargetID, l.supplier.Name())
	return raw, nil
}

// ToTable returns the fetched records, or a NOT_FETCHED error when Fetch has
// not succeeded yet
func (l *Loader) ToTable() (*bioactivity.RawTable, error) {
	if l.raw == nil {
		return nil, apperrors.NotFetched(core.ErrNotFetched)
	}
	return l.raw, nil
}

// Query returns the query of the last successful fetch
func (l *Loader) Query() ports.ActivityQuery {
	return l.query
}

// InputHash fingerprints raw records independent of their order
func InputHash(raw *bioactivity.RawTable) core.InputHash {
	rows := make([][]string, 0, raw.Len())
	if raw != nil {
		for _, r := range raw.Records {
			confidence := ""
			if r.ConfidenceScore != nil {
				confidence = strconv.Itoa(*r.ConfidenceScore)
			}
			value := ""
			if r.StandardValue != nil {
				value = fmt.Sprint(r.StandardValue)
			}
			rows = append(rows, []string{
				r.MoleculeID, r.CanonicalSmiles, r.StandardType, value,
				r.StandardUnits, r.AssayType, confidence,
			})
		}
	}
	return core.ComputeInputHash(rows)
}
