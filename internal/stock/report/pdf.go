// Package report renders the lot label sheet and the packing slip.
package report

import (
	"fmt"
	"io"

	"github.com/boombuler/barcode/code128"
	"github.com/go-pdf/fpdf"
	"github.com/go-pdf/fpdf/contrib/barcode"
	"github.com/quantscan/quantscan-backend/internal/stock/domain"
	"github.com/shopspring/decimal"
)

// Content types of rendered reports
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Label sheet geometry in millimetres: 3 x 8 labels on A4
const (
	labelCols    = 3
	labelRows    = 8
	labelWidth   = 64.0
	labelHeight  = 34.0
	sheetMarginX = 9.0
	sheetMarginY = 12.0
)

func newDocument(orientation, title string) *fpdf.Fpdf {
	pdf := fpdf.New(orientation, "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetCreator("quantscan", false)
	pdf.SetMargins(sheetMarginX, sheetMarginY, sheetMarginX)
	return pdf
}

// checkCode rejects codes that cannot be drawn as Code 128
func checkCode(code string) error {
	if _, err := code128.Encode(code); err != nil {
		return fmt.Errorf("barcode %q: %w", code, err)
	}
	return nil
}

// LabelsPDF writes one page set per product template, one label per quant.
func LabelsPDF(w io.Writer, groups []domain.LabelGroup) error {
	pdf := newDocument("P", "Lot Barcodes")
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if len(groups) == 0 {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 8, "No labels to print.", "", 1, "L", false, 0, "")
	}

	for _, g := range groups {
		for i, label := range g.Labels {
			slot := i % (labelCols * labelRows)
			if slot == 0 {
				pdf.AddPage()
			}

			x := sheetMarginX + float64(slot%labelCols)*labelWidth
			y := sheetMarginY + float64(slot/labelCols)*labelHeight

			if err := drawLabel(pdf, tr, x, y, label); err != nil {
				return err
			}
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render labels: %w", err)
	}
	return pdf.Output(w)
}

func drawLabel(pdf *fpdf.Fpdf, tr func(string) string, x, y float64, l domain.Label) error {
	const pad = 3.0
	inner := labelWidth - 2*pad

	pdf.SetDrawColor(200, 200, 200)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	pdf.SetXY(x+pad, y+pad)
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(inner, 4, tr(l.Product), "", 0, "L", false, 0, "")

	if l.Barcode != "" {
		if err := checkCode(l.Barcode); err != nil {
			return err
		}
		key := barcode.RegisterCode128(pdf, l.Barcode)
		barcode.Barcode(pdf, key, x+pad, y+pad+5, inner, 11, false)
	}

	pdf.SetXY(x+pad, y+pad+17)
	pdf.SetFont("Courier", "B", 9)
	pdf.CellFormat(inner, 4, l.Barcode, "", 0, "C", false, 0, "")

	pdf.SetXY(x+pad, y+pad+21.5)
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(inner/2, 3.5, tr("Lot: "+l.Lot), "", 0, "L", false, 0, "")
	pdf.CellFormat(inner/2, 3.5, "Qty: "+l.Quantity, "", 0, "R", false, 0, "")

	pdf.SetXY(x+pad, y+pad+25)
	pdf.CellFormat(inner, 3.5, tr(l.Location), "", 0, "L", false, 0, "")

	return nil
}

type chalanColumn struct {
	title string
	width float64
	align string
}

var chalanColumns = []chalanColumn{
	{"Box No", 26, "L"},
	{"Code", 52, "C"},
	{"Product", 52, "L"},
	{"Location", 40, "L"},
	{"Qty", 18, "R"},
	{"Net Wt", 22, "R"},
	{"Tare Wt", 22, "R"},
	{"Gross Wt", 24, "R"},
}

// ChalanPDF writes the packing slip as a landscape table with a totals line.
func ChalanPDF(w io.Writer, rows []domain.ChalanRow) error {
	pdf := newDocument("L", "Packing Slip")
	pdf.SetAutoPageBreak(true, 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(235, 235, 235)
		for _, c := range chalanColumns {
			pdf.CellFormat(c.width, 7, c.title, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 9, "Packing Slip", "", 1, "L", false, 0, "")
		header()
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	const rowHeight = 14.0
	var totals chalanTotals

	for _, r := range rows {
		if err := checkCode(r.Code); err != nil {
			return err
		}
		totals.add(r)

		_, pageHeight := pdf.GetPageSize()
		if pdf.GetY()+rowHeight > pageHeight-12 {
			pdf.AddPage()
		}

		x, y := pdf.GetXY()
		pdf.SetFont("Helvetica", "", 8)
		cells := []string{r.BoxNo, "", r.ProductName, r.Location, r.Quantity, r.NetWeight, r.TareWeight, r.GrossWeight}
		for i, c := range chalanColumns {
			pdf.CellFormat(c.width, rowHeight, tr(cells[i]), "1", 0, c.align, false, 0, "")
		}

		// barcode with its text inside the code cell
		codeX := x + chalanColumns[0].width
		key := barcode.RegisterCode128(pdf, r.Code)
		barcode.Barcode(pdf, key, codeX+2, y+1.5, chalanColumns[1].width-4, 7.5, false)
		pdf.SetXY(codeX, y+9)
		pdf.SetFont("Courier", "", 7)
		pdf.CellFormat(chalanColumns[1].width, 4, r.Code, "", 0, "C", false, 0, "")

		pdf.SetXY(x, y+rowHeight)
	}

	pdf.SetFont("Helvetica", "B", 8)
	totalWidth := 0.0
	for _, c := range chalanColumns[:4] {
		totalWidth += c.width
	}
	pdf.CellFormat(totalWidth, 7, fmt.Sprintf("Total (%d boxes)", len(rows)), "1", 0, "R", false, 0, "")
	for i, v := range totals.strings() {
		c := chalanColumns[4+i]
		pdf.CellFormat(c.width, 7, v, "1", 0, c.align, false, 0, "")
	}
	pdf.Ln(-1)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render packing slip: %w", err)
	}
	return pdf.Output(w)
}

type chalanTotals struct {
	quantity, net, tare, gross decimal.Decimal
}

func (t *chalanTotals) add(r domain.ChalanRow) {
	t.quantity = t.quantity.Add(parseDecimal(r.Quantity))
	t.net = t.net.Add(parseDecimal(r.NetWeight))
	t.tare = t.tare.Add(parseDecimal(r.TareWeight))
	t.gross = t.gross.Add(parseDecimal(r.GrossWeight))
}

func (t *chalanTotals) strings() []string {
	return []string{
		t.quantity.String(),
		t.net.StringFixed(1),
		t.tare.StringFixed(1),
		t.gross.StringFixed(1),
	}
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
