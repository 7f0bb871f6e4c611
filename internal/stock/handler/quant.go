package handler

import (
	"net/http"

	"github.com/quantscan/quantscan-backend/internal/stock/domain"
	"github.com/quantscan/quantscan-backend/internal/stock/service"
	"github.com/quantscan/quantscan-backend/pkg/httputil"
	"github.com/quantscan/quantscan-backend/pkg/logger"
)

// QuantHandler handles quant maintenance endpoints
type QuantHandler struct {
	quants   *service.QuantService
	barcodes *service.BarcodeService
	logger   *logger.Logger
}

// NewQuantHandler creates a new quant handler
func NewQuantHandler(quants *service.QuantService, barcodes *service.BarcodeService, log *logger.Logger) *QuantHandler {
	return &QuantHandler{
		quants:   quants,
		barcodes: barcodes,
		logger:   log,
	}
}

// Create creates a quant
// POST /quants
func (h *QuantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateQuantRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	q, err := h.quants.Create(r.Context(), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, q)
}

// Get returns a quant
// GET /quants/{id}
func (h *QuantHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.URLParamID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	q, err := h.quants.Get(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, q)
}

// Update changes location, lot, quantity or weights of a quant
// PUT /quants/{id}
func (h *QuantHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.URLParamID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req domain.UpdateQuantRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	q, err := h.quants.Update(r.Context(), id, &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, q)
}

// GenerateBarcode assigns the next barcode to a quant
// POST /quants/{id}/generate-barcode
func (h *QuantHandler) GenerateBarcode(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.URLParamID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	q, err := h.barcodes.GenerateBarcode(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, q)
}

// Consume takes quantity out of a quant
// POST /quants/{id}/consume
func (h *QuantHandler) Consume(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.URLParamID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req domain.ConsumeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	q, err := h.quants.ConsumeByID(r.Context(), id, &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, q)
}

// History lists the inventory adjustments of a quant, newest first
// GET /quants/{id}/adjustments
func (h *QuantHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.URLParamID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	adjustments, err := h.quants.History(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, adjustments)
}
