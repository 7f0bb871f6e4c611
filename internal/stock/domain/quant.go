package domain

import (
	"time"
)

// Location usages. Only internal locations hold countable stock.
const (
	UsageInternal  = "internal"
	UsageView      = "view"
	UsageSupplier  = "supplier"
	UsageCustomer  = "customer"
	UsageInventory = "inventory"
	UsageTransit   = "transit"
)

// Quant is the on-hand quantity of one product in one location, optionally
// for one lot. The joined fields are read-only and filled by the repository.
type Quant struct {
	ID          int64     `json:"id" db:"id"`
	ProductID   int64     `json:"product_id" db:"product_id"`
	LocationID  int64     `json:"location_id" db:"location_id"`
	LotID       *int64    `json:"lot_id,omitempty" db:"lot_id"`
	CompanyID   int64     `json:"company_id" db:"company_id"`
	Quantity    float64   `json:"quantity" db:"quantity"`
	ScanBarcode *string   `json:"scan_barcode,omitempty" db:"scan_barcode"`
	NetWeight   float64   `json:"net_weight" db:"net_weight"`
	TareWeight  float64   `json:"tare_weight" db:"tare_weight"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	ProductTmplID   int64   `json:"product_tmpl_id" db:"product_tmpl_id"`
	ProductName     string  `json:"product_name" db:"product_name"`
	ProductTmplName string  `json:"product_tmpl_name" db:"product_tmpl_name"`
	LocationName    string  `json:"location_name" db:"location_name"`
	LocationUsage   string  `json:"location_usage" db:"location_usage"`
	LotName         *string `json:"lot_name,omitempty" db:"lot_name"`
}

// HasBarcode reports whether a scan barcode has been assigned.
func (q *Quant) HasBarcode() bool {
	return q.ScanBarcode != nil && *q.ScanBarcode != ""
}

// Barcode returns the scan barcode or "".
func (q *Quant) Barcode() string {
	if q.ScanBarcode == nil {
		return ""
	}
	return *q.ScanBarcode
}

// Lot returns the lot name or "".
func (q *Quant) Lot() string {
	if q.LotName == nil {
		return ""
	}
	return *q.LotName
}

// Eligible reports whether the quant should carry a scan barcode:
// internal location, lot set and positive quantity.
func (q *Quant) Eligible() bool {
	return q.LocationUsage == UsageInternal && q.LotID != nil && q.Quantity > 0
}

// ProductTemplate groups product variants.
type ProductTemplate struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Lot is a lot or serial number of a product.
type Lot struct {
	ID        int64  `json:"id" db:"id"`
	Name      string `json:"name" db:"name"`
	ProductID int64  `json:"product_id" db:"product_id"`
	CompanyID int64  `json:"company_id" db:"company_id"`
}

// EligibleLot is a lot with printable stock, aggregated over its quants.
type EligibleLot struct {
	ID         int64   `json:"id" db:"id"`
	Name       string  `json:"name" db:"name"`
	QuantCount int     `json:"quant_count" db:"quant_count"`
	Quantity   float64 `json:"quantity" db:"quantity"`
}

// StockAdjustment records one inventory correction applied to a quant.
type StockAdjustment struct {
	ID               int64     `json:"id" db:"id"`
	QuantID          int64     `json:"quant_id" db:"quant_id"`
	PreviousQuantity float64   `json:"previous_quantity" db:"previous_quantity"`
	CountedQuantity  float64   `json:"counted_quantity" db:"counted_quantity"`
	Difference       float64   `json:"difference" db:"difference"`
	Reason           string    `json:"reason" db:"reason"`
	PerformedBy      string    `json:"performed_by" db:"performed_by"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// CountFunc decides the counted quantity of an adjustment from the quantity
// read under the row lock. An error aborts the adjustment.
type CountFunc func(previous float64) (float64, error)

// QuantFilter selects quants for printing and barcode generation.
// Zero values mean "no restriction".
type QuantFilter struct {
	ProductTmplID int64
	CompanyID     int64
	LocationID    int64
	LotID         int64
	InternalOnly  bool
	RequireLot    bool
}
