package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Zones"

var headers = []string{"Zone", "Clients", "Finished", "Total", "Paid", "Remaining"}

// WriteXLSX writes the summary as a one-sheet workbook with a totals row.
func WriteXLSX(w io.Writer, s Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}

	f.SetColWidth(sheetName, "A", "A", 24)
	f.SetColWidth(sheetName, "B", "F", 14)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	totalStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating totals style: %w", err)
	}

	for i, h := range headers {
		f.SetCellValue(sheetName, cell(i, 1), h)
	}
	f.SetCellStyle(sheetName, cell(0, 1), cell(len(headers)-1, 1), headerStyle)

	row := 2
	for _, z := range s.Zones {
		writeRow(f, row, []any{
			z.ZoneName,
			z.ClientCount,
			z.FinishedCount,
			z.TotalAmount.InexactFloat64(),
			z.TotalPaid.InexactFloat64(),
			z.Remaining.InexactFloat64(),
		})
		row++
	}
	t := s.Totals
	writeRow(f, row, []any{
		"Total",
		t.ClientCount,
		t.FinishedCount,
		t.TotalAmount.InexactFloat64(),
		t.TotalPaid.InexactFloat64(),
		t.Remaining.InexactFloat64(),
	})
	f.SetCellStyle(sheetName, cell(0, row), cell(len(headers)-1, row), totalStyle)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, row int, values []any) {
	for i, v := range values {
		f.SetCellValue(sheetName, cell(i, row), v)
	}
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col+1, row)
	return name
}
