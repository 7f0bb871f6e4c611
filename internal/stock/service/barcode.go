package service

import (
	"context"
	"fmt"

	"github.com/quantscan/quantscan-backend/internal/stock/domain"
	"github.com/quantscan/quantscan-backend/pkg/errors"
	"github.com/quantscan/quantscan-backend/pkg/logger"
)

// BarcodeService assigns sequence barcodes to quants
type BarcodeService struct {
	quants       QuantStore
	sequences    SequenceStore
	tx           Transactor
	events       EventPublisher
	sequenceCode string
	logger       *logger.Logger
}

// NewBarcodeService creates a new barcode service
func NewBarcodeService(
	quants QuantStore,
	sequences SequenceStore,
	tx Transactor,
	events EventPublisher,
	sequenceCode string,
	log *logger.Logger,
) *BarcodeService {
	return &BarcodeService{
		quants:       quants,
		sequences:    sequences,
		tx:           tx,
		events:       events,
		sequenceCode: sequenceCode,
		logger:       log.WithComponent("barcode"),
	}
}

// EnsureBarcode assigns a barcode when the quant is eligible and has none.
// It reports whether a barcode was assigned. Every path that can make a
// quant eligible calls this after persisting the quant.
func (s *BarcodeService) EnsureBarcode(ctx context.Context, q *domain.Quant) (bool, error) {
	if q.HasBarcode() || !q.Eligible() {
		return false, nil
	}
	if err := s.assign(ctx, q); err != nil {
		return false, err
	}
	return true, nil
}

// GenerateBarcode is the manual "generate barcode" action on one quant
func (s *BarcodeService) GenerateBarcode(ctx context.Context, id int64) (*domain.Quant, error) {
	q, err := s.quants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if q.HasBarcode() {
		return nil, errors.UserError(domain.MsgAlreadyBarcoded)
	}
	if !q.Eligible() {
		return nil, errors.UserError(domain.MsgNotEligible)
	}

	if err := s.assign(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// ForceBarcode assigns a barcode to a quant that has none, eligible or not.
// Print paths use it so every printed label carries a code.
func (s *BarcodeService) ForceBarcode(ctx context.Context, q *domain.Quant) error {
	if q.HasBarcode() {
		return nil
	}
	return s.assign(ctx, q)
}

func (s *BarcodeService) assign(ctx context.Context, q *domain.Quant) error {
	var (
		code   string
		number int64
	)

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		seq, err := s.sequences.GetByCode(ctx, s.sequenceCode)
		if err != nil {
			return fmt.Errorf("load barcode sequence: %w", err)
		}

		code, number, err = domain.Allocate(ctx, seq, s.quants.BarcodeExists)
		if err != nil {
			return err
		}

		if err := s.quants.SetBarcode(ctx, q.ID, code); err != nil {
			return err
		}
		return s.sequences.SetNumberNext(ctx, seq.ID, number+1)
	})
	if err != nil {
		s.logger.Warn().Err(err).Int64("quant_id", q.ID).Msg("barcode assignment failed")
		return err
	}

	q.ScanBarcode = &code
	s.logger.Info().
		Int64("quant_id", q.ID).
		Str("barcode", code).
		Msg("barcode assigned")

	s.events.PublishBarcodeAssigned(ctx, q, number)
	return nil
}
