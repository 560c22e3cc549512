package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	defaultSheet   = "Sheet1"
	maxColumnWidth = 60
	minColumnWidth = 10
)

// BuildExcel writes one worksheet per section into an xlsx workbook
func BuildExcel(ds *Dataset) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	for i, section := range ds.Sections() {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, section.Title); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(section.Title); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", section.Title, err)
		}
		if err := writeSheet(f, section); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", section.Title, err)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, section Section) error {
	sheet := section.Title

	header := make([]any, len(section.Columns))
	widths := make([]int, len(section.Columns))
	for i, col := range section.Columns {
		header[i] = col
		widths[i] = len(col)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for r, row := range section.Rows {
		values := make([]any, len(row))
		for c, cell := range row {
			values[c] = cell.Value
			if c < len(widths) && len(cell.String()) > widths[c] {
				widths[c] = len(cell.String())
			}
		}
		axis, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, axis, &values); err != nil {
			return err
		}
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{tint(section.Entity)}},
	})
	if err != nil {
		return err
	}
	last, err := excelize.ColumnNumberToName(len(section.Columns))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", style); err != nil {
		return err
	}

	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, float64(clamp(w+2, minColumnWidth, maxColumnWidth))); err != nil {
			return err
		}
	}
	return nil
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
