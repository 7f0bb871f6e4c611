package domain

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Report kinds
const (
	ReportBarcode = "barcode"
	ReportChalan  = "chalan"
)

// NoLot is the box number printed for quants without a lot.
const NoLot = "NOLOT"

// Label is one barcode label on the lot label sheet.
type Label struct {
	QuantID  int64  `json:"quant_id"`
	Barcode  string `json:"barcode"`
	Lot      string `json:"lot"`
	Location string `json:"location"`
	Product  string `json:"product"`
	Quantity string `json:"quantity"`
}

// LabelGroup holds the labels of one product template.
type LabelGroup struct {
	ProductTmplID   int64   `json:"product_tmpl_id"`
	ProductTmplName string  `json:"product_tmpl_name"`
	Labels          []Label `json:"labels"`
}

// ChalanRow is one line of the packing slip.
type ChalanRow struct {
	BoxNo       string `json:"box_no"`
	Code        string `json:"code"`
	Quantity    string `json:"quantity"`
	Location    string `json:"location"`
	ProductName string `json:"product_name"`
	NetWeight   string `json:"net_weight"`
	TareWeight  string `json:"tare_weight"`
	GrossWeight string `json:"gross_weight"`
}

// FormatQuantity renders a quantity without a trailing ".0" when integral.
func FormatQuantity(v float64) string {
	return decimal.NewFromFloat(v).String()
}

// FormatWeight renders a weight with exactly one decimal place. Rounding
// works on the binary value, so 0.25 prints as "0.2".
func FormatWeight(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// BuildLabelGroups groups quants by product template, keeping the input
// order inside each group and the order of first appearance across groups.
func BuildLabelGroups(quants []*Quant) []LabelGroup {
	groups := make([]LabelGroup, 0)
	index := make(map[int64]int)

	for _, q := range quants {
		i, ok := index[q.ProductTmplID]
		if !ok {
			i = len(groups)
			index[q.ProductTmplID] = i
			groups = append(groups, LabelGroup{
				ProductTmplID:   q.ProductTmplID,
				ProductTmplName: q.ProductTmplName,
				Labels:          make([]Label, 0),
			})
		}

		groups[i].Labels = append(groups[i].Labels, Label{
			QuantID:  q.ID,
			Barcode:  q.Barcode(),
			Lot:      q.Lot(),
			Location: q.LocationName,
			Product:  q.ProductName,
			Quantity: FormatQuantity(q.Quantity),
		})
	}

	return groups
}

// BuildChalanRows projects quants onto packing slip rows.
func BuildChalanRows(quants []*Quant) []ChalanRow {
	rows := make([]ChalanRow, 0, len(quants))

	for _, q := range quants {
		boxNo := q.Lot()
		if boxNo == "" {
			boxNo = NoLot
		}
		code := q.Barcode()
		if code == "" {
			code = boxNo
		}

		rows = append(rows, ChalanRow{
			BoxNo:       boxNo,
			Code:        code,
			Quantity:    FormatQuantity(q.Quantity),
			Location:    q.LocationName,
			ProductName: q.ProductName,
			NetWeight:   FormatWeight(q.NetWeight),
			TareWeight:  FormatWeight(q.TareWeight),
			GrossWeight: FormatWeight(q.NetWeight + q.TareWeight),
		})
	}

	return rows
}
