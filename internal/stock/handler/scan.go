package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/quantscan/quantscan-backend/internal/stock/service"
	"github.com/quantscan/quantscan-backend/pkg/httputil"
	"github.com/quantscan/quantscan-backend/pkg/logger"
)

// maxScanBody bounds the POST body a scanner may send
const maxScanBody = 64 << 10

// ScanHandler serves the public scanner endpoints. Every response is
// HTTP 200 with a flat result body.
type ScanHandler struct {
	svc    *service.ScanService
	logger *logger.Logger
}

// NewScanHandler creates a new scan handler
func NewScanHandler(svc *service.ScanService, log *logger.Logger) *ScanHandler {
	return &ScanHandler{
		svc:    svc,
		logger: log,
	}
}

// scanParams are the scan arguments as sent by the client. Values stay
// untyped since scanners send numbers and strings interchangeably.
type scanParams struct {
	Code          interface{} `json:"code"`
	Token         interface{} `json:"token"`
	ProductTmplID interface{} `json:"product_tmpl_id"`
}

func (p scanParams) request() service.ScanRequest {
	return service.ScanRequest{
		Code:          stringParam(p.Code),
		Token:         stringParam(p.Token),
		ProductTmplID: service.ParseProductFilter(p.ProductTmplID),
	}
}

// scanBody is either a flat scanParams object or a JSON-RPC envelope
type scanBody struct {
	scanParams
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Params  *scanParams     `json:"params"`
}

type rpcResponse struct {
	JSONRPC string             `json:"jsonrpc"`
	ID      json.RawMessage    `json:"id"`
	Result  service.ScanResult `json:"result"`
}

// Scan handles a scan passed as query parameters
// GET /stock_quantity_scan/scan?code=&token=&product_tmpl_id=
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := service.ScanRequest{
		Code:          q.Get("code"),
		Token:         q.Get("token"),
		ProductTmplID: service.ParseProductFilter(q.Get("product_tmpl_id")),
	}

	httputil.RawJSON(w, http.StatusOK, h.svc.Scan(r.Context(), req))
}

// ScanJSON handles a scan posted as JSON, flat or wrapped in a JSON-RPC
// envelope. Envelope requests are answered in the same envelope.
// POST /stock_quantity_scan/scan_json
func (h *ScanHandler) ScanJSON(w http.ResponseWriter, r *http.Request) {
	var body scanBody

	dec := json.NewDecoder(io.LimitReader(r.Body, maxScanBody))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil && err != io.EOF {
		// an unreadable body is treated as a scan without arguments
		h.logger.Debug().Err(err).Msg("invalid scan body")
		body = scanBody{}
	}

	params := body.scanParams
	if body.Params != nil {
		params = *body.Params
	}

	result := h.svc.Scan(r.Context(), params.request())

	if body.JSONRPC != "" || body.Params != nil {
		id := body.ID
		if len(id) == 0 {
			id = json.RawMessage("null")
		}
		httputil.RawJSON(w, http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: id, Result: result})
		return
	}

	httputil.RawJSON(w, http.StatusOK, result)
}

// DebugToken echoes the given and configured scan tokens
// POST /stock_quantity_scan/_debug_token
func (h *ScanHandler) DebugToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.svc.DebugToken(r.Context(), req.Token)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to read scan token")
		httputil.Error(w, err)
		return
	}

	h.logger.Warn().Bool("equal", result.Equal).Msg("scan token debug endpoint used")
	httputil.RawJSON(w, http.StatusOK, result)
}

func stringParam(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	default:
		return ""
	}
}
