package domain

import (
	"bytes"
	"encoding/json"
)

// Operator-facing messages of stock actions.
const (
	MsgAlreadyBarcoded    = "This quant already has a barcode."
	MsgNotEligible        = "Barcode is only generated for internal, positive quants with a lot."
	MsgSelectProduct      = "Please select a Product before creating a Quant."
	MsgSelectLocation     = "Please select a Location before creating a Quant."
	MsgNoQuantsToPrint    = "No internal quants with on-hand quantity for this selection."
	MsgNoLotQuantsToPrint = "No internal quants with lots to print for this product."
	MsgLotNotEligible     = "The selected lot has no internal on-hand quantity for this product."
)

// OptionalID distinguishes an absent JSON field from an explicit null.
type OptionalID struct {
	Set   bool
	Value *int64
}

// UnmarshalJSON implements json.Unmarshaler
func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// CreateQuantRequest is the payload for creating a quant by hand.
type CreateQuantRequest struct {
	ProductID   int64   `json:"product_id"`
	LocationID  int64   `json:"location_id"`
	LotID       *int64  `json:"lot_id,omitempty" validate:"omitempty,gt=0"`
	Quantity    float64 `json:"quantity"`
	ScanBarcode *string `json:"scan_barcode,omitempty" validate:"omitempty,min=1,max=64"`
	NetWeight   float64 `json:"net_weight" validate:"gte=0"`
	TareWeight  float64 `json:"tare_weight" validate:"gte=0"`
}

// UpdateQuantRequest is a partial update; nil fields are left untouched.
type UpdateQuantRequest struct {
	LocationID *int64     `json:"location_id,omitempty" validate:"omitempty,gt=0"`
	LotID      OptionalID `json:"lot_id"`
	Quantity   *float64   `json:"quantity,omitempty"`
	NetWeight  *float64   `json:"net_weight,omitempty" validate:"omitempty,gte=0"`
	TareWeight *float64   `json:"tare_weight,omitempty" validate:"omitempty,gte=0"`
}

// ConsumeRequest consumes from a known quant.
type ConsumeRequest struct {
	Code     string   `json:"code"`
	Quantity *float64 `json:"quantity,omitempty"`
}

// PrintRequest drives the lot barcode print wizard.
type PrintRequest struct {
	ProductTmplID int64  `json:"product_tmpl_id" validate:"required,gt=0"`
	LotID         *int64 `json:"lot_id,omitempty" validate:"omitempty,gt=0"`
	Format        string `json:"format" validate:"required,oneof=barcode chalan"`
}

// PrintJob is what a print action resolves to: a report kind and the quants to render.
type PrintJob struct {
	Report        string  `json:"report"`
	ProductTmplID int64   `json:"product_tmpl_id"`
	QuantIDs      []int64 `json:"quant_ids"`
}
