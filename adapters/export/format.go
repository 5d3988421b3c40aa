// Package export writes classified hit tables to disk.
package export

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"chemhits/domain/bioactivity"
	apperrors "chemhits/internal/errors"
	"chemhits/ports"
)

// BaseName is the file name, without extension, of every hit summary output
const BaseName = "hit_summary"

// Supported formats
const (
	FormatCSV      = "csv"
	FormatXLSX     = "xlsx"
	FormatMarkdown = "md"
	FormatHTML     = "html"
)

// NewWriters resolves a list of format names into writers
func NewWriters(formats []string) ([]ports.OutputWriter, error) {
	writers := make([]ports.OutputWriter, 0, len(formats))
	seen := make(map[string]bool)
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true

		switch f {
		case FormatCSV:
			writers = append(writers, CSVWriter{})
		case FormatXLSX:
			writers = append(writers, XLSXWriter{})
		case FormatMarkdown, "markdown":
			writers = append(writers, MarkdownWriter{})
		case FormatHTML:
			writers = append(writers, HTMLWriter{})
		default:
			return nil, apperrors.InvalidInput(fmt.Sprintf("unknown output format %q", f))
		}
	}
	return writers, nil
}

// outputPath creates dir when missing and returns dir/hit_summary.<ext>
func outputPath(dir, ext string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	return filepath.Join(dir, BaseName+"."+ext), nil
}

// Records renders the table as a header row plus one string row per
// compound, in bioactivity.ClassifiedColumns order. Undefined statistics are
// empty strings.
func Records(table *bioactivity.ClassifiedTable) [][]string {
	out := make([][]string, 0, table.Len()+1)
	out = append(out, append([]string(nil), bioactivity.ClassifiedColumns...))
	if table == nil {
		return out
	}
	for _, r := range table.Rows {
		out = append(out, []string{
			r.MoleculeID,
			strconv.Itoa(r.MeasurementCount),
			formatFloat(r.MedianActivity),
			formatFloat(r.MeanActivity),
			formatFloat(r.StdActivity),
			formatFloat(r.MinActivity),
			formatFloat(r.MaxActivity),
			strconv.FormatBool(r.PassActivity),
			strconv.FormatBool(r.PassStd),
			strconv.FormatBool(r.PassN),
			string(r.HitStrength),
		})
	}
	return out
}

func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
