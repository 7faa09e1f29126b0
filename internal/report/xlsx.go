package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Payroll"

var header = []string{"Doctor", "Role", "Confirmed shifts", "Nominal hours", "Worked hours", "Without clock out"}

// ExportXLSX writes the payroll as a single sheet workbook.
func ExportXLSX(w io.Writer, p *Payroll) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	f.SetColWidth(sheetName, "A", "A", 28)
	f.SetColWidth(sheetName, "B", "B", 14)
	f.SetColWidth(sheetName, "C", "F", 18)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	f.SetCellValue(sheetName, "A1", fmt.Sprintf("Payroll %s to %s", p.From, p.To))
	f.MergeCell(sheetName, "A1", colName(len(header)-1)+"1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	for i, h := range header {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheetName, "A2", cell(colName(len(header)-1), 2), headerStyle)

	row := 3
	for _, d := range p.Doctors {
		values := []any{d.FullName, string(d.Role), d.Shifts, d.NominalHours, d.WorkedHours, d.Open}
		for i, v := range values {
			f.SetCellValue(sheetName, cell(colName(i), row), v)
		}
		row++
	}

	return f.Write(w)
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
