package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventQuantBarcodeAssigned = "stock.quant.barcode_assigned"
	EventQuantConsumed        = "stock.quant.consumed"
	EventQuantRemoved         = "stock.quant.removed"
)

// Exchange names
const (
	ExchangeStockEvents = "stock.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// QuantBarcodeAssignedEvent is published when a quant receives its scan barcode
type QuantBarcodeAssignedEvent struct {
	QuantID   int64  `json:"quant_id"`
	CompanyID int64  `json:"company_id"`
	Barcode   string `json:"barcode"`
	Number    int64  `json:"sequence_number"`
}

// QuantConsumedEvent is published after quantity was taken out of a quant
type QuantConsumedEvent struct {
	QuantID          int64   `json:"quant_id"`
	CompanyID        int64   `json:"company_id"`
	Barcode          string  `json:"barcode,omitempty"`
	ScannedCode      string  `json:"scanned_code,omitempty"`
	PreviousQuantity float64 `json:"previous_quantity"`
	Consumed         float64 `json:"consumed"`
	NewQuantity      float64 `json:"new_quantity"`
}

// QuantRemovedEvent is published when a fully consumed quant is deleted
type QuantRemovedEvent struct {
	QuantID   int64  `json:"quant_id"`
	CompanyID int64  `json:"company_id"`
	Barcode   string `json:"barcode,omitempty"`
}
