// Package postgres supplies raw bioactivity records from a local ChEMBL
// PostgreSQL dump.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"chemhits/domain/bioactivity"
	"chemhits/internal"
	apperrors "chemhits/internal/errors"
	"chemhits/ports"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// activityRow is one joined activity as read from the dump
type activityRow struct {
	MoleculeID      string         `db:"molecule_chembl_id"`
	CanonicalSmiles string         `db:"canonical_smiles"`
	StandardType    string         `db:"standard_type"`
	StandardValue   sql.NullString `db:"standard_value"`
	StandardUnits   string         `db:"standard_units"`
	AssayType       string         `db:"assay_type"`
	ConfidenceScore sql.NullInt64  `db:"confidence_score"`
}

// Supplier implements ports.RecordSupplier over the ChEMBL relational schema
type Supplier struct {
	db     *sqlx.DB
	logger *internal.Logger
}

var _ ports.RecordSupplier = (*Supplier)(nil)

// Connect opens and pings a ChEMBL database
func Connect(ctx context.Context, databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		return nil, apperrors.ExternalServiceError("chembl-postgres", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// NewSupplier creates a database-backed supplier
func NewSupplier(db *sqlx.DB, logger *internal.Logger) *Supplier {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Supplier{db: db, logger: logger.WithComponent("ChEMBLDB")}
}

// Name identifies the supplier in run manifests
func (s *Supplier) Name() string {
	return "chembl-postgres"
}

// FetchBioactivities selects up to q.Limit activities of the target in
// activity_id order. The assay confidence score is always part of the schema,
// so the returned table carries the confidence column.
func (s *Supplier) FetchBioactivities(ctx context.Context, q ports.ActivityQuery) (*bioactivity.RawTable, error) {
	q = q.WithDefaults()
	if q.TargetID == "" {
		return nil, apperrors.InvalidInput("target id is required")
	}

	query, args := buildActivityQuery(q)
	s.logger.Trace("query: %s", query)

	start := time.Now()
	var rows []activityRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.ExternalServiceError("chembl-postgres", fmt.Errorf("failed to query activities: %w", err))
	}

	table := &bioactivity.RawTable{
		Records:            make([]bioactivity.RawRecord, 0, len(rows)),
		HasConfidenceScore: true,
	}
	for _, r := range rows {
		table.Records = append(table.Records, r.toRecord())
	}

	s.logger.Info("fetched %d activities for %s in %.0fms",
		len(table.Records), q.TargetID, float64(time.Since(start).Microseconds())/1e3)
	return table, nil
}

// buildActivityQuery returns the positional SQL and its arguments
func buildActivityQuery(q ports.ActivityQuery) (string, []interface{}) {
	var b strings.Builder
	b.WriteString(`SELECT
		md.chembl_id AS molecule_chembl_id,
		COALESCE(cs.canonical_smiles, '') AS canonical_smiles,
		COALESCE(act.standard_type, '') AS standard_type,
		act.standard_value::text AS standard_value,
		COALESCE(act.standard_units, '') AS standard_units,
		COALESCE(a.assay_type, '') AS assay_type,
		a.confidence_score
	FROM activities act
	JOIN assays a ON a.assay_id = act.assay_id
	JOIN target_dictionary td ON td.tid = a.tid
	JOIN molecule_dictionary md ON md.molregno = act.molregno
	LEFT JOIN compound_structures cs ON cs.molregno = act.molregno
	WHERE td.chembl_id = $1
	AND act.standard_type = ANY($2)`)

	args := []interface{}{q.TargetID.String(), pq.Array(q.StandardTypes)}
	if q.Debug {
		args = append(args, ports.DebugMinConfidence, ports.DebugAssayType)
		fmt.Fprintf(&b, "\n\tAND a.confidence_score >= $%d\n\tAND a.assay_type = $%d", len(args)-1, len(args))
	}

	args = append(args, q.Limit)
	fmt.Fprintf(&b, "\n\tORDER BY act.activity_id\n\tLIMIT $%d", len(args))
	return b.String(), args
}

func (r activityRow) toRecord() bioactivity.RawRecord {
	rec := bioactivity.RawRecord{
		MoleculeID:      r.MoleculeID,
		CanonicalSmiles: r.CanonicalSmiles,
		StandardType:    r.StandardType,
		StandardUnits:   r.StandardUnits,
		AssayType:       r.AssayType,
	}
	if r.StandardValue.Valid {
		rec.StandardValue = r.StandardValue.String
	}
	if r.ConfidenceScore.Valid {
		rec.ConfidenceScore = bioactivity.Int(int(r.ConfidenceScore.Int64))
	}
	return rec
}
