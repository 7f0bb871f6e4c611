package service

import (
	"context"

	"github.com/quantscan/quantscan-backend/internal/stock/domain"
	"github.com/quantscan/quantscan-backend/pkg/actor"
	"github.com/quantscan/quantscan-backend/pkg/errors"
	"github.com/quantscan/quantscan-backend/pkg/logger"
)

// QuantService handles manual quant maintenance and consumption
type QuantService struct {
	quants           QuantStore
	adjustments      AdjustmentStore
	barcodes         *BarcodeService
	tx               Transactor
	events           EventPublisher
	defaultCompanyID int64
	logger           *logger.Logger
}

// NewQuantService creates a new quant service
func NewQuantService(
	quants QuantStore,
	adjustments AdjustmentStore,
	barcodes *BarcodeService,
	tx Transactor,
	events EventPublisher,
	defaultCompanyID int64,
	log *logger.Logger,
) *QuantService {
	return &QuantService{
		quants:           quants,
		adjustments:      adjustments,
		barcodes:         barcodes,
		tx:               tx,
		events:           events,
		defaultCompanyID: defaultCompanyID,
		logger:           log.WithComponent("quant"),
	}
}

// Create creates a quant by hand and assigns a barcode when it is eligible
func (s *QuantService) Create(ctx context.Context, req *domain.CreateQuantRequest) (*domain.Quant, error) {
	if req.ProductID <= 0 {
		return nil, errors.UserError(domain.MsgSelectProduct)
	}
	if req.LocationID <= 0 {
		return nil, errors.UserError(domain.MsgSelectLocation)
	}

	q := &domain.Quant{
		ProductID:   req.ProductID,
		LocationID:  req.LocationID,
		LotID:       req.LotID,
		CompanyID:   actor.CompanyID(ctx, s.defaultCompanyID),
		Quantity:    req.Quantity,
		ScanBarcode: req.ScanBarcode,
		NetWeight:   req.NetWeight,
		TareWeight:  req.TareWeight,
	}

	var created *domain.Quant
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.quants.Create(ctx, q); err != nil {
			return err
		}

		var err error
		created, err = s.quants.GetByID(ctx, q.ID)
		if err != nil {
			return err
		}

		_, err = s.barcodes.EnsureBarcode(ctx, created)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("quant_id", created.ID).
		Str("performed_by", actor.PerformedBy(ctx)).
		Msg("quant created")

	return created, nil
}

// Get returns a quant with its product, location and lot details
func (s *QuantService) Get(ctx context.Context, id int64) (*domain.Quant, error) {
	return s.quants.GetByID(ctx, id)
}

// Update applies a partial update and re-checks barcode eligibility
func (s *QuantService) Update(ctx context.Context, id int64, req *domain.UpdateQuantRequest) (*domain.Quant, error) {
	var updated *domain.Quant

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		q, err := s.quants.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if req.LocationID != nil {
			q.LocationID = *req.LocationID
		}
		if req.LotID.Set {
			q.LotID = req.LotID.Value
		}
		if req.Quantity != nil {
			q.Quantity = *req.Quantity
		}
		if req.NetWeight != nil {
			q.NetWeight = *req.NetWeight
		}
		if req.TareWeight != nil {
			q.TareWeight = *req.TareWeight
		}

		if err := s.quants.Update(ctx, q); err != nil {
			return err
		}

		// reload: location usage and lot name may have changed
		updated, err = s.quants.GetByID(ctx, id)
		if err != nil {
			return err
		}

		_, err = s.barcodes.EnsureBarcode(ctx, updated)
		return err
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Consume takes quantity out of q. An explicit qty wins over a quantity
// embedded in code; with neither, the whole quantity is consumed. The amount
// is resolved against the quantity locked by the adjustment, not q.Quantity,
// and the result never drops below zero. The quant is not deleted here.
func (s *QuantService) Consume(ctx context.Context, q *domain.Quant, code string, qty *float64) (domain.Consumption, error) {
	var c domain.Consumption
	adj := &domain.StockAdjustment{
		QuantID:     q.ID,
		Reason:      "consume " + code,
		PerformedBy: actor.PerformedBy(ctx),
	}
	err := s.adjustments.Apply(ctx, adj, func(previous float64) (float64, error) {
		var err error
		c, err = domain.ResolveConsumption(previous, code, qty)
		return c.New, err
	})
	if err != nil {
		return domain.Consumption{}, err
	}

	q.Quantity = c.New
	s.logger.Info().
		Int64("quant_id", q.ID).
		Str("code", code).
		Float64("previous", c.Previous).
		Float64("consumed", c.Target).
		Float64("new_quantity", c.New).
		Str("performed_by", adj.PerformedBy).
		Msg("quant consumed")

	s.events.PublishConsumed(ctx, q, code, c)
	return c, nil
}

// ConsumeByID loads the quant and consumes from it
func (s *QuantService) ConsumeByID(ctx context.Context, id int64, req *domain.ConsumeRequest) (*domain.Quant, error) {
	q, err := s.quants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.Consume(ctx, q, req.Code, req.Quantity); err != nil {
		return nil, err
	}
	return q, nil
}

// History returns the adjustments applied to a quant, newest first
func (s *QuantService) History(ctx context.Context, id int64) ([]*domain.StockAdjustment, error) {
	if _, err := s.quants.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.adjustments.ListByQuant(ctx, id)
}
