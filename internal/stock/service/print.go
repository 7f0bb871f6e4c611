package service

import (
	"context"

	"github.com/quantscan/quantscan-backend/internal/stock/domain"
	"github.com/quantscan/quantscan-backend/pkg/actor"
	"github.com/quantscan/quantscan-backend/pkg/errors"
	"github.com/quantscan/quantscan-backend/pkg/logger"
)

// PrintService selects quants for label and packing slip printing
type PrintService struct {
	quants           QuantStore
	catalog          CatalogStore
	barcodes         *BarcodeService
	defaultCompanyID int64
	logger           *logger.Logger
}

// NewPrintService creates a new print service
func NewPrintService(
	quants QuantStore,
	catalog CatalogStore,
	barcodes *BarcodeService,
	defaultCompanyID int64,
	log *logger.Logger,
) *PrintService {
	return &PrintService{
		quants:           quants,
		catalog:          catalog,
		barcodes:         barcodes,
		defaultCompanyID: defaultCompanyID,
		logger:           log.WithComponent("print"),
	}
}

// EligibleLots returns the lots of a product template that have on-hand
// quantity in internal locations of the caller's company.
func (s *PrintService) EligibleLots(ctx context.Context, productTmplID int64) ([]domain.EligibleLot, error) {
	if _, err := s.catalog.GetProductTemplate(ctx, productTmplID); err != nil {
		return nil, err
	}
	return s.quants.EligibleLots(ctx, productTmplID, actor.CompanyID(ctx, s.defaultCompanyID))
}

// Print runs the lot barcode wizard: it selects the quants of the product
// (one lot, or every quant with a lot), makes sure each carries a barcode
// and returns the print job for the chosen report.
func (s *PrintService) Print(ctx context.Context, req *domain.PrintRequest) (*domain.PrintJob, error) {
	lots, err := s.EligibleLots(ctx, req.ProductTmplID)
	if err != nil {
		return nil, err
	}

	filter := domain.QuantFilter{
		ProductTmplID: req.ProductTmplID,
		CompanyID:     actor.CompanyID(ctx, s.defaultCompanyID),
		InternalOnly:  true,
		RequireLot:    true,
	}

	if req.LotID != nil {
		if _, err := s.catalog.GetLot(ctx, *req.LotID); err != nil {
			return nil, err
		}
		if !containsLot(lots, *req.LotID) {
			return nil, errors.UserError(domain.MsgLotNotEligible)
		}
		filter.LotID = *req.LotID
	}

	return s.prepare(ctx, filter, req.Format, domain.MsgNoQuantsToPrint)
}

// PrintLotBarcodes is the product-level label action, optionally limited
// to one location.
func (s *PrintService) PrintLotBarcodes(ctx context.Context, productTmplID, locationID int64) (*domain.PrintJob, error) {
	if _, err := s.catalog.GetProductTemplate(ctx, productTmplID); err != nil {
		return nil, err
	}

	filter := domain.QuantFilter{
		ProductTmplID: productTmplID,
		CompanyID:     actor.CompanyID(ctx, s.defaultCompanyID),
		LocationID:    locationID,
		InternalOnly:  true,
		RequireLot:    true,
	}

	return s.prepare(ctx, filter, domain.ReportBarcode, domain.MsgNoLotQuantsToPrint)
}

// GenerateQuantBarcodes assigns a barcode to every positive quant of the
// product that lacks one, regardless of location or lot.
func (s *PrintService) GenerateQuantBarcodes(ctx context.Context, productTmplID int64) ([]*domain.Quant, error) {
	if _, err := s.catalog.GetProductTemplate(ctx, productTmplID); err != nil {
		return nil, err
	}

	quants, err := s.quants.List(ctx, domain.QuantFilter{ProductTmplID: productTmplID})
	if err != nil {
		return nil, err
	}

	assigned := 0
	for _, q := range quants {
		if q.HasBarcode() {
			continue
		}
		if err := s.barcodes.ForceBarcode(ctx, q); err != nil {
			return nil, err
		}
		assigned++
	}

	s.logger.Info().
		Int64("product_tmpl_id", productTmplID).
		Int("quants", len(quants)).
		Int("assigned", assigned).
		Msg("quant barcodes generated")

	return quants, nil
}

func (s *PrintService) prepare(ctx context.Context, filter domain.QuantFilter, report, emptyMsg string) (*domain.PrintJob, error) {
	quants, err := s.quants.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(quants) == 0 {
		return nil, errors.UserError(emptyMsg)
	}

	job := &domain.PrintJob{
		Report:        report,
		ProductTmplID: filter.ProductTmplID,
		QuantIDs:      make([]int64, 0, len(quants)),
	}

	for _, q := range quants {
		if err := s.barcodes.ForceBarcode(ctx, q); err != nil {
			return nil, err
		}
		job.QuantIDs = append(job.QuantIDs, q.ID)
	}

	return job, nil
}

func containsLot(lots []domain.EligibleLot, id int64) bool {
	for _, l := range lots {
		if l.ID == id {
			return true
		}
	}
	return false
}
