package handler

import (
	"net/http"

	"github.com/quantscan/quantscan-backend/internal/stock/domain"
	"github.com/quantscan/quantscan-backend/internal/stock/service"
	"github.com/quantscan/quantscan-backend/pkg/httputil"
	"github.com/quantscan/quantscan-backend/pkg/logger"
)

// PrintHandler handles the product barcode actions and the print wizard
type PrintHandler struct {
	svc    *service.PrintService
	logger *logger.Logger
}

// NewPrintHandler creates a new print handler
func NewPrintHandler(svc *service.PrintService, log *logger.Logger) *PrintHandler {
	return &PrintHandler{
		svc:    svc,
		logger: log,
	}
}

// printJobResponse adds the render link to a resolved print job
type printJobResponse struct {
	*domain.PrintJob
	RenderURL string `json:"render_url"`
}

func newPrintJobResponse(job *domain.PrintJob) printJobResponse {
	return printJobResponse{
		PrintJob:  job,
		RenderURL: reportURL(job.Report, "render", job.QuantIDs),
	}
}

// EligibleLots lists the lots that can be printed for a product template
// GET /products/{id}/eligible-lots
func (h *PrintHandler) EligibleLots(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.URLParamID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	lots, err := h.svc.EligibleLots(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, lots)
}

// GenerateBarcodes assigns barcodes to every positive quant of a product template
// POST /products/{id}/generate-barcodes
func (h *PrintHandler) GenerateBarcodes(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.URLParamID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	quants, err := h.svc.GenerateQuantBarcodes(r.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Int64("product_tmpl_id", id).Msg("failed to generate quant barcodes")
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, quants)
}

// PrintLotBarcodes resolves the label sheet of a product template
// POST /products/{id}/print-lot-barcodes?location_id=
func (h *PrintHandler) PrintLotBarcodes(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.URLParamID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	locationID, err := httputil.QueryParamID(r, "location_id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	job, err := h.svc.PrintLotBarcodes(r.Context(), id, locationID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, newPrintJobResponse(job))
}

// Print runs the print wizard
// POST /print
func (h *PrintHandler) Print(w http.ResponseWriter, r *http.Request) {
	var req domain.PrintRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	job, err := h.svc.Print(r.Context(), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, newPrintJobResponse(job))
}
