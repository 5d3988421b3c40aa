// Package bioactivity holds the tabular record types that flow through the
// hit-calling pipeline, from raw supplier rows to classified compound summaries.
package bioactivity

// Column names follow the ChEMBL activity resource so tables round-trip
// through CSV and the REST API without renaming.
const (
	ColMoleculeID      = "molecule_chembl_id"
	ColCanonicalSmiles = "canonical_smiles"
	ColStandardType    = "standard_type"
	ColStandardValue   = "standard_value"
	ColStandardUnits   = "standard_units"
	ColAssayType       = "assay_type"
	ColConfidenceScore = "confidence_score"
	ColPActivity       = "pActivity"
	ColPIC50           = "pIC50"
	ColPKi             = "pKi"
	ColIsHit           = "is_hit"
)

// RawColumns is the field set every supplier returns, in supplier order.
// confidence_score is optional and only listed when the source carries it.
var RawColumns = []string{
	ColMoleculeID,
	ColCanonicalSmiles,
	ColStandardType,
	ColStandardValue,
	ColStandardUnits,
	ColAssayType,
}

// CanonicalColumns is the final projection applied by the normalizer.
var CanonicalColumns = []string{
	ColMoleculeID,
	ColCanonicalSmiles,
	ColStandardType,
	ColStandardValue,
	ColStandardUnits,
	ColAssayType,
	ColConfidenceScore,
	ColPActivity,
	ColPIC50,
	ColPKi,
}

// Measurement types
const (
	TypeIC50 = "IC50"
	TypeKi   = "Ki"
)

// UnitNanomolar is the unit every normalized value is expressed in
const UnitNanomolar = "nM"

// RawRecord is one bioactivity observation as received from a supplier.
// StandardValue is left untyped: sources deliver strings, numbers, or nothing.
type RawRecord struct {
	MoleculeID      string      `json:"molecule_chembl_id" db:"molecule_chembl_id"`
	CanonicalSmiles string      `json:"canonical_smiles" db:"canonical_smiles"`
	StandardType    string      `json:"standard_type" db:"standard_type"`
	StandardValue   interface{} `json:"standard_value" db:"standard_value"`
	StandardUnits   string      `json:"standard_units" db:"standard_units"`
	AssayType       string      `json:"assay_type" db:"assay_type"`
	ConfidenceScore *int        `json:"confidence_score,omitempty" db:"confidence_score"`
}

// RawTable is the full record set for one target
type RawTable struct {
	Records []RawRecord `json:"records"`
	// HasConfidenceScore is false when the source has no confidence column at all,
	// which turns the confidence filter into a no-op.
	HasConfidenceScore bool `json:"has_confidence_score"`
}

// Columns returns the column set the raw table carries
func (t *RawTable) Columns() []string {
	cols := append([]string(nil), RawColumns...)
	if t.HasConfidenceScore {
		cols = append(cols, ColConfidenceScore)
	}
	return cols
}

// Len returns the number of records
func (t *RawTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Measurement is one cleaned observation. Optional fields are nil when the
// value is undefined for the row, never zero.
type Measurement struct {
	MoleculeID      string   `json:"molecule_chembl_id"`
	CanonicalSmiles string   `json:"canonical_smiles,omitempty"`
	StandardType    string   `json:"standard_type"`
	StandardValue   float64  `json:"standard_value"`
	StandardUnits   string   `json:"standard_units,omitempty"`
	AssayType       string   `json:"assay_type,omitempty"`
	ConfidenceScore *int     `json:"confidence_score,omitempty"`
	PActivity       *float64 `json:"pActivity,omitempty"`
	PIC50           *float64 `json:"pIC50,omitempty"`
	PKi             *float64 `json:"pKi,omitempty"`
}

// Clone returns a deep copy so stages never share optional values
func (m Measurement) Clone() Measurement {
	out := m
	out.ConfidenceScore = cloneInt(m.ConfidenceScore)
	out.PActivity = cloneFloat(m.PActivity)
	out.PIC50 = cloneFloat(m.PIC50)
	out.PKi = cloneFloat(m.PKi)
	return out
}

// Activity returns the potency stored under the named column
func (m Measurement) Activity(col ActivityColumn) (float64, bool) {
	var v *float64
	switch col {
	case ActivityPIC50:
		v = m.PIC50
	case ActivityPKi:
		v = m.PKi
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}

// Table is an ordered set of measurements plus the columns that are
// meaningful for them. Fields outside Columns carry no information.
type Table struct {
	Columns []string      `json:"columns"`
	Rows    []Measurement `json:"rows"`
}

// NewTable creates a table with a private copy of the column list
func NewTable(columns []string, rows []Measurement) *Table {
	if rows == nil {
		rows = []Measurement{}
	}
	return &Table{Columns: append([]string(nil), columns...), Rows: rows}
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether the column is part of the table
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	rows := make([]Measurement, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = r.Clone()
	}
	return NewTable(t.Columns, rows)
}

// ActivityColumn names a potency column a hit call can be made on. Only
// columns that survive aggregation qualify; pActivity is dropped there.
type ActivityColumn string

const (
	ActivityPIC50 ActivityColumn = ColPIC50
	ActivityPKi   ActivityColumn = ColPKi
)

// ParseActivityColumn validates a column name
func ParseActivityColumn(s string) (ActivityColumn, bool) {
	switch ActivityColumn(s) {
	case ActivityPIC50, ActivityPKi:
		return ActivityColumn(s), true
	}
	return "", false
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Float returns a pointer to v, for building optional fields
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for building optional fields
func Int(v int) *int { return &v }
