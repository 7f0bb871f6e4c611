package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/quantscan/quantscan-backend/internal/stock/domain"
	"github.com/quantscan/quantscan-backend/internal/stock/report"
	"github.com/quantscan/quantscan-backend/internal/stock/service"
	"github.com/quantscan/quantscan-backend/pkg/errors"
	"github.com/quantscan/quantscan-backend/pkg/httputil"
	"github.com/quantscan/quantscan-backend/pkg/logger"
)

// ReportsPath is where the report routes are mounted
const ReportsPath = "/api/v1/stock/reports"

// ReportHandler serves label sheet and packing slip data and documents
type ReportHandler struct {
	svc    *service.ReportService
	logger *logger.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(svc *service.ReportService, log *logger.Logger) *ReportHandler {
	return &ReportHandler{
		svc:    svc,
		logger: log,
	}
}

// Data returns the report data as JSON
// GET /reports/{kind}/data?quant_ids=&product_tmpl_id=
func (h *ReportHandler) Data(w http.ResponseWriter, r *http.Request) {
	q, err := parseReportQuery(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	switch chi.URLParam(r, "kind") {
	case domain.ReportBarcode:
		groups, err := h.svc.Labels(r.Context(), q)
		if err != nil {
			httputil.Error(w, err)
			return
		}
		httputil.JSON(w, http.StatusOK, groups)
	case domain.ReportChalan:
		rows, err := h.svc.Chalan(r.Context(), q)
		if err != nil {
			httputil.Error(w, err)
			return
		}
		httputil.JSON(w, http.StatusOK, rows)
	default:
		httputil.Error(w, errors.NotFound("report"))
	}
}

// Render returns the report as a PDF, or as XLSX for the packing slip
// when output=xlsx.
// GET /reports/{kind}/render?quant_ids=&product_tmpl_id=&output=
func (h *ReportHandler) Render(w http.ResponseWriter, r *http.Request) {
	q, err := parseReportQuery(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	kind := chi.URLParam(r, "kind")
	output := r.URL.Query().Get("output")
	if output == "" {
		output = "pdf"
	}

	var (
		buf         bytes.Buffer
		contentType = report.ContentTypePDF
		filename    string
	)

	switch {
	case kind == domain.ReportBarcode && output == "pdf":
		groups, err := h.svc.Labels(r.Context(), q)
		if err != nil {
			httputil.Error(w, err)
			return
		}
		filename = "lot-barcodes.pdf"
		err = report.LabelsPDF(&buf, groups)
		if err != nil {
			h.renderFailed(w, kind, err)
			return
		}
	case kind == domain.ReportChalan && (output == "pdf" || output == "xlsx"):
		rows, err := h.svc.Chalan(r.Context(), q)
		if err != nil {
			httputil.Error(w, err)
			return
		}
		if output == "xlsx" {
			contentType = report.ContentTypeXLSX
			filename = "packing-slip.xlsx"
			err = report.ChalanXLSX(&buf, rows)
		} else {
			filename = "packing-slip.pdf"
			err = report.ChalanPDF(&buf, rows)
		}
		if err != nil {
			h.renderFailed(w, kind, err)
			return
		}
	case kind == domain.ReportBarcode || kind == domain.ReportChalan:
		httputil.Error(w, errors.BadRequest("unsupported output "+output+" for "+kind))
		return
	default:
		httputil.Error(w, errors.NotFound("report"))
		return
	}

	h.writeDocument(w, &buf, contentType, filename)
}

func (h *ReportHandler) writeDocument(w http.ResponseWriter, buf *bytes.Buffer, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Debug().Err(err).Str("filename", filename).Msg("failed to write report")
	}
}

func (h *ReportHandler) renderFailed(w http.ResponseWriter, kind string, err error) {
	h.logger.Error().Err(err).Str("report", kind).Msg("failed to render report")
	httputil.Error(w, errors.Internal("failed to render report"))
}

// parseReportQuery reads quant_ids as a comma separated list, repeated or not
func parseReportQuery(r *http.Request) (service.ReportQuery, error) {
	var q service.ReportQuery

	for _, raw := range r.URL.Query()["quant_ids"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id <= 0 {
				return q, errors.BadRequest("invalid quant_ids")
			}
			q.QuantIDs = append(q.QuantIDs, id)
		}
	}

	tmplID, err := httputil.QueryParamID(r, "product_tmpl_id")
	if err != nil {
		return q, err
	}
	q.ProductTmplID = tmplID

	return q, nil
}

func reportURL(kind, action string, ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}

	v := url.Values{}
	v.Set("quant_ids", strings.Join(parts, ","))
	return ReportsPath + "/" + kind + "/" + action + "?" + v.Encode()
}
