package report

import (
	"fmt"
	"io"

	"github.com/quantscan/quantscan-backend/internal/stock/domain"
	"github.com/xuri/excelize/v2"
)

const chalanSheet = "Packing Slip"

// ChalanXLSX writes the packing slip as a spreadsheet. Quantities and
// weights are stored as numbers; box numbers and codes stay text.
func ChalanXLSX(w io.Writer, rows []domain.ChalanRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", chalanSheet); err != nil {
		return err
	}

	header := []interface{}{"Box No", "Code", "Product", "Location", "Quantity", "Net Weight", "Tare Weight", "Gross Weight"}
	if err := f.SetSheetRow(chalanSheet, "A1", &header); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"EBEBEB"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(chalanSheet, "A1", "H1", bold); err != nil {
		return err
	}

	weight, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return err
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}

		values := []interface{}{
			r.BoxNo,
			r.Code,
			r.ProductName,
			r.Location,
			parseDecimal(r.Quantity).InexactFloat64(),
			parseDecimal(r.NetWeight).InexactFloat64(),
			parseDecimal(r.TareWeight).InexactFloat64(),
			parseDecimal(r.GrossWeight).InexactFloat64(),
		}
		if err := f.SetSheetRow(chalanSheet, cell, &values); err != nil {
			return err
		}
	}

	last := len(rows) + 1
	if len(rows) > 0 {
		if err := f.SetCellStyle(chalanSheet, "F2", fmt.Sprintf("H%d", last), weight); err != nil {
			return err
		}
	}

	total := last + 1
	if err := f.SetCellValue(chalanSheet, fmt.Sprintf("D%d", total), "Total"); err != nil {
		return err
	}
	for _, col := range []string{"E", "F", "G", "H"} {
		formula := fmt.Sprintf("SUM(%s2:%s%d)", col, col, last)
		if err := f.SetCellFormula(chalanSheet, fmt.Sprintf("%s%d", col, total), formula); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(chalanSheet, fmt.Sprintf("D%d", total), fmt.Sprintf("H%d", total), bold); err != nil {
		return err
	}

	if err := f.SetColWidth(chalanSheet, "A", "H", 16); err != nil {
		return err
	}
	if err := f.SetPanes(chalanSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	return f.Write(w)
}
