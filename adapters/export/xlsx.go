package export

import (
	"math"

	"chemhits/domain/bioactivity"
	"chemhits/domain/core"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the summary
const SheetName = "hit_summary"

// XLSXWriter writes hit_summary.xlsx with typed cells
type XLSXWriter struct{}

func (XLSXWriter) Format() string { return FormatXLSX }

func (XLSXWriter) Write(dir string, _ core.TargetID, table *bioactivity.ClassifiedTable) (string, error) {
	path, err := outputPath(dir, FormatXLSX)
	if err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return "", err
	}

	for i, h := range bioactivity.ClassifiedColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return "", err
		}
	}

	for r, row := range table.Rows {
		values := []interface{}{
			row.MoleculeID,
			row.MeasurementCount,
			row.MedianActivity,
			row.MeanActivity,
			row.StdActivity,
			row.MinActivity,
			row.MaxActivity,
			row.PassActivity,
			row.PassStd,
			row.PassN,
			string(row.HitStrength),
		}
		for c, v := range values {
			if fv, ok := v.(float64); ok && (math.IsNaN(fv) || math.IsInf(fv, 0)) {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return "", err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return "", err
	}
	return path, nil
}
