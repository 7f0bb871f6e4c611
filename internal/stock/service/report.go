package service

import (
	"context"

	"github.com/quantscan/quantscan-backend/internal/stock/domain"
	"github.com/quantscan/quantscan-backend/pkg/errors"
)

// ReportService loads the quants behind the label and packing slip reports
type ReportService struct {
	quants QuantStore
}

// NewReportService creates a new report service
func NewReportService(quants QuantStore) *ReportService {
	return &ReportService{quants: quants}
}

// ReportQuery selects the quants of a report. QuantIDs win; without them
// every positive quant of ProductTmplID is used.
type ReportQuery struct {
	QuantIDs      []int64
	ProductTmplID int64
}

func (s *ReportService) load(ctx context.Context, q ReportQuery) ([]*domain.Quant, error) {
	if len(q.QuantIDs) > 0 {
		return s.quants.GetByIDs(ctx, q.QuantIDs)
	}
	if q.ProductTmplID > 0 {
		return s.quants.List(ctx, domain.QuantFilter{ProductTmplID: q.ProductTmplID})
	}
	return nil, errors.BadRequest("quant_ids or product_tmpl_id is required")
}

// Labels returns label sheet data grouped by product template
func (s *ReportService) Labels(ctx context.Context, q ReportQuery) ([]domain.LabelGroup, error) {
	quants, err := s.load(ctx, q)
	if err != nil {
		return nil, err
	}
	return domain.BuildLabelGroups(quants), nil
}

// Chalan returns the packing slip rows
func (s *ReportService) Chalan(ctx context.Context, q ReportQuery) ([]domain.ChalanRow, error) {
	quants, err := s.load(ctx, q)
	if err != nil {
		return nil, err
	}
	return domain.BuildChalanRows(quants), nil
}
