package service

import (
	"context"

	"github.com/quantscan/quantscan-backend/internal/stock/domain"
)

// QuantStore is the quant persistence used by the stock services.
// *repository.QuantRepository implements it.
type QuantStore interface {
	Create(ctx context.Context, q *domain.Quant) error
	GetByID(ctx context.Context, id int64) (*domain.Quant, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*domain.Quant, error)
	Update(ctx context.Context, q *domain.Quant) error
	Delete(ctx context.Context, id int64) error
	SetBarcode(ctx context.Context, id int64, code string) error
	BarcodeExists(ctx context.Context, code string) (bool, error)
	FindByBarcode(ctx context.Context, code string, productTmplID int64) (*domain.Quant, error)
	FindByLotName(ctx context.Context, name string, productTmplID int64) (*domain.Quant, error)
	List(ctx context.Context, f domain.QuantFilter) ([]*domain.Quant, error)
	EligibleLots(ctx context.Context, productTmplID, companyID int64) ([]domain.EligibleLot, error)
	GetQuantity(ctx context.Context, id int64) (float64, error)
}

// SequenceStore reads and advances numbering sequences
type SequenceStore interface {
	GetByCode(ctx context.Context, code string) (*domain.Sequence, error)
	SetNumberNext(ctx context.Context, id, next int64) error
}

// AdjustmentStore applies inventory adjustments
type AdjustmentStore interface {
	Apply(ctx context.Context, adj *domain.StockAdjustment, count domain.CountFunc) error
	ListByQuant(ctx context.Context, quantID int64) ([]*domain.StockAdjustment, error)
}

// ParameterStore reads system parameters
type ParameterStore interface {
	Get(ctx context.Context, key string) (string, error)
}

// CatalogStore reads products and lots
type CatalogStore interface {
	GetProductTemplate(ctx context.Context, id int64) (*domain.ProductTemplate, error)
	GetLot(ctx context.Context, id int64) (*domain.Lot, error)
}

// Transactor runs fn in a transaction carried on the context.
// *database.DB implements it.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher emits quant lifecycle events.
// *events.StockEventPublisher implements it, including as a nil pointer.
type EventPublisher interface {
	PublishBarcodeAssigned(ctx context.Context, q *domain.Quant, number int64)
	PublishConsumed(ctx context.Context, q *domain.Quant, scannedCode string, c domain.Consumption)
	PublishRemoved(ctx context.Context, q *domain.Quant)
}
