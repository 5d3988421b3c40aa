package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"chemhits/domain/bioactivity"
	"chemhits/domain/core"
)

// CSVWriter writes hit_summary.csv
type CSVWriter struct{}

func (CSVWriter) Format() string { return FormatCSV }

func (CSVWriter) Write(dir string, _ core.TargetID, table *bioactivity.ClassifiedTable) (string, error) {
	path, err := outputPath(dir, FormatCSV)
	if err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := writeRecords(f, Records(table)); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// writeRecords writes and closes wc; a failed close is a failed write
func writeRecords(wc io.WriteCloser, records [][]string) error {
	if err := csv.NewWriter(wc).WriteAll(records); err != nil {
		wc.Close()
		return err
	}
	return wc.Close()
}
