package ports

import (
	"context"

	"chemhits/domain/bioactivity"
	"chemhits/domain/core"
)

// DefaultQueryLimit caps the number of activity records fetched per target
const DefaultQueryLimit = 200

// Debug mode restricts the query to high-confidence binding assays
const (
	DebugMinConfidence = 8
	DebugAssayType     = "B"
)

// ActivityQuery selects the bioactivity records of one target
type ActivityQuery struct {
	TargetID      core.TargetID
	StandardTypes []string
	Debug         bool
	Limit         int
}

// WithDefaults fills an unset limit and measurement type list
func (q ActivityQuery) WithDefaults() ActivityQuery {
	if q.Limit <= 0 {
		q.Limit = DefaultQueryLimit
	}
	if len(q.StandardTypes) == 0 {
		q.StandardTypes = []string{bioactivity.TypeIC50}
	}
	return q
}

// RecordSupplier fetches raw bioactivity records. Implementations decide
// where records come from (REST API, database dump, local file) but must
// return the bioactivity.RawColumns field set.
type RecordSupplier interface {
	Name() string
	FetchBioactivities(ctx context.Context, q ActivityQuery) (*bioactivity.RawTable, error)
}
