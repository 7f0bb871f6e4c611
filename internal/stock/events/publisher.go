package events

import (
	"context"

	"github.com/quantscan/quantscan-backend/internal/stock/domain"
	"github.com/quantscan/quantscan-backend/pkg/logger"
	"github.com/quantscan/quantscan-backend/pkg/messaging"
)

// Publisher is the transport used to emit events; *messaging.Publisher satisfies it.
type Publisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// StockEventPublisher publishes quant lifecycle events. A nil
// *StockEventPublisher is valid and publishes nothing, which is how the
// service runs with the broker disabled. Failures are logged and never
// returned to the caller.
type StockEventPublisher struct {
	publisher Publisher
	logger    *logger.Logger
}

// NewStockEventPublisher creates a publisher on the stock events exchange
func NewStockEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*StockEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeStockEvents, "scan-service", log)
	if err != nil {
		return nil, err
	}
	return NewWithPublisher(publisher, log), nil
}

// NewWithPublisher wraps an existing transport
func NewWithPublisher(publisher Publisher, log *logger.Logger) *StockEventPublisher {
	return &StockEventPublisher{
		publisher: publisher,
		logger:    log.WithComponent("stock-events"),
	}
}

// PublishBarcodeAssigned publishes a barcode assigned event
func (p *StockEventPublisher) PublishBarcodeAssigned(ctx context.Context, q *domain.Quant, number int64) {
	if p == nil {
		return
	}

	data := messaging.QuantBarcodeAssignedEvent{
		QuantID:   q.ID,
		CompanyID: q.CompanyID,
		Barcode:   q.Barcode(),
		Number:    number,
	}

	if err := p.publisher.Publish(ctx, messaging.EventQuantBarcodeAssigned, data); err != nil {
		p.logger.Error().Err(err).Int64("quant_id", q.ID).Msg("failed to publish barcode assigned event")
	}
}

// PublishConsumed publishes a quant consumed event
func (p *StockEventPublisher) PublishConsumed(ctx context.Context, q *domain.Quant, scannedCode string, c domain.Consumption) {
	if p == nil {
		return
	}

	data := messaging.QuantConsumedEvent{
		QuantID:          q.ID,
		CompanyID:        q.CompanyID,
		Barcode:          q.Barcode(),
		ScannedCode:      scannedCode,
		PreviousQuantity: c.Previous,
		Consumed:         c.Target,
		NewQuantity:      c.New,
	}

	if err := p.publisher.Publish(ctx, messaging.EventQuantConsumed, data); err != nil {
		p.logger.Error().Err(err).Int64("quant_id", q.ID).Msg("failed to publish quant consumed event")
	}
}

// PublishRemoved publishes a quant removed event
func (p *StockEventPublisher) PublishRemoved(ctx context.Context, q *domain.Quant) {
	if p == nil {
		return
	}

	data := messaging.QuantRemovedEvent{
		QuantID:   q.ID,
		CompanyID: q.CompanyID,
		Barcode:   q.Barcode(),
	}

	if err := p.publisher.Publish(ctx, messaging.EventQuantRemoved, data); err != nil {
		p.logger.Error().Err(err).Int64("quant_id", q.ID).Msg("failed to publish quant removed event")
	}
}
