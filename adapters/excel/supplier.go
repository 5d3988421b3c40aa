package excel

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"chemhits/domain/bioactivity"
	"chemhits/internal"
	apperrors "chemhits/internal/errors"
	"chemhits/ports"
)

// ColTargetID optionally scopes a file holding several targets
const ColTargetID = "target_chembl_id"

// requiredHeaders must be present in every input file
var requiredHeaders = []string{
	bioactivity.ColMoleculeID,
	bioactivity.ColStandardType,
	bioactivity.ColStandardValue,
	bioactivity.ColStandardUnits,
	bioactivity.ColAssayType,
}

// FileSupplier serves raw records from a CSV or XLSX export. The query is
// applied the way the API would apply it: target (when the file has a
// target column), standard types, debug filters and limit.
type FileSupplier struct {
	config FileConfig
	reader *DataReader
	logger *internal.Logger
}

var _ ports.RecordSupplier = (*FileSupplier)(nil)

// NewFileSupplier creates a file-backed supplier
func NewFileSupplier(config FileConfig, logger *internal.Logger) (*FileSupplier, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &FileSupplier{
		config: config,
		reader: NewDataReader(config, logger),
		logger: logger.WithComponent("FileSupplier"),
	}, nil
}

// Name identifies the supplier in run manifests
func (s *FileSupplier) Name() string {
	return "file"
}

// FetchBioactivities reads the file and returns the matching records
func (s *FileSupplier) FetchBioactivities(ctx context.Context, q ports.ActivityQuery) (*bioactivity.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q = q.WithDefaults()

	data, err := s.reader.ReadData()
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	return s.toRawTable(data, q)
}

// ReadAll returns every record in the file without query filtering
func (s *FileSupplier) ReadAll() (*bioactivity.RawTable, error) {
	data, err := s.reader.ReadData()
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	return s.toRawTable(data, ports.ActivityQuery{})
}

func (s *FileSupplier) toRawTable(data *ExcelData, q ports.ActivityQuery) (*bioactivity.RawTable, error) {
	for _, h := range requiredHeaders {
		if !data.HasHeader(h) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("%s: missing column %q", s.config.FilePath, h))
		}
	}

	table := &bioactivity.RawTable{
		Records:            make([]bioactivity.RawRecord, 0, len(data.Rows)),
		HasConfidenceScore: data.HasHeader(bioactivity.ColConfidenceScore),
	}
	scopeTarget := q.TargetID != "" && data.HasHeader(ColTargetID)
	types := make(map[string]bool, len(q.StandardTypes))
	for _, t := range q.StandardTypes {
		types[t] = true
	}

	skipped := 0
	for _, row := range data.Rows {
		if q.Limit > 0 && len(table.Records) >= q.Limit {
			break
		}
		if scopeTarget && !strings.EqualFold(row[ColTargetID], q.TargetID.String()) {
			continue
		}

		rec := rowToRecord(row)
		if len(types) > 0 && !types[rec.StandardType] {
			continue
		}
		if q.Debug && !passesDebugFilter(rec) {
			continue
		}
		if rec.StandardValue == nil {
			skipped++
		}
		table.Records = append(table.Records, rec)
	}

	s.logger.Info("read %d records from %s (%d without a value)", len(table.Records), s.config.FilePath, skipped)
	return table, nil
}

func rowToRecord(row RawRowData) bioactivity.RawRecord {
	rec := bioactivity.RawRecord{
		MoleculeID:      row[bioactivity.ColMoleculeID],
		CanonicalSmiles: row[bioactivity.ColCanonicalSmiles],
		StandardType:    row[bioactivity.ColStandardType],
		StandardUnits:   row[bioactivity.ColStandardUnits],
		AssayType:       row[bioactivity.ColAssayType],
	}
	if v := row[bioactivity.ColStandardValue]; v != "" {
		rec.StandardValue = v
	}
	if v := row[bioactivity.ColConfidenceScore]; v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			rec.ConfidenceScore = bioactivity.Int(n)
		}
	}
	return rec
}

func passesDebugFilter(rec bioactivity.RawRecord) bool {
	return rec.ConfidenceScore != nil &&
		*rec.ConfidenceScore >= ports.DebugMinConfidence &&
		rec.AssayType == ports.DebugAssayType
}
