package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"contractlens/internal/domain"
)

const sheetName = "Findings"

var columnWidths = []float64{5, 11, 12, 60, 50, 50}

// WriteXLSX writes findings as a single-sheet workbook to out.
func WriteXLSX(out io.Writer, findings []domain.Finding) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	wrapStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return fmt.Errorf("creating body style: %w", err)
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(columns))
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	for i := range findings {
		fd := &findings[i]
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{i + 1, fd.RiskScore, RiskLevel(fd.RiskScore), fd.ClauseText, fd.Explanation, fd.Recommendation}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}
	if len(findings) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(columns), len(findings)+1)
		if err := f.SetCellStyle(sheetName, "A2", last, wrapStyle); err != nil {
			return fmt.Errorf("styling rows: %w", err)
		}
	}

	for i, w := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheetName, col, col, w); err != nil {
			return fmt.Errorf("setting width of %s: %w", col, err)
		}
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freezing header: %w", err)
	}

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
