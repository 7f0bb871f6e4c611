package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/quantscan/quantscan-backend/internal/stock/events"
	"github.com/quantscan/quantscan-backend/internal/stock/handler"
	"github.com/quantscan/quantscan-backend/internal/stock/repository"
	"github.com/quantscan/quantscan-backend/internal/stock/service"
	"github.com/quantscan/quantscan-backend/pkg/auth"
	"github.com/quantscan/quantscan-backend/pkg/config"
	"github.com/quantscan/quantscan-backend/pkg/database"
	"github.com/quantscan/quantscan-backend/pkg/httputil"
	"github.com/quantscan/quantscan-backend/pkg/logger"
	"github.com/quantscan/quantscan-backend/pkg/permissions"
	"github.com/quantscan/quantscan-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	tokenKey     = "stock_quantity_scan.scan_token"
	sequenceCode = "stock.quant.barcode"
	paramQuery   = `SELECT value FROM config_parameters WHERE key = $1`
)

type testEnv struct {
	router    http.Handler
	tokens    *auth.Manager
	publisher *testutil.MockPublisher
}

func newTestEnv(t *testing.T, db *database.DB, debugToken bool) *testEnv {
	t.Helper()
	log := logger.Nop()

	quants := repository.NewQuantRepository(db)
	sequences := repository.NewSequenceRepository(db)
	adjustments := repository.NewAdjustmentRepository(db)
	params := repository.NewParameterRepository(db)
	catalog := repository.NewCatalogRepository(db)

	publisher := testutil.NewMockPublisher()
	ev := events.NewWithPublisher(publisher, log)

	barcodes := service.NewBarcodeService(quants, sequences, db, ev, sequenceCode, log)
	quantSvc := service.NewQuantService(quants, adjustments, barcodes, db, ev, 1, log)
	scanSvc := service.NewScanService(quants, params, quantSvc, ev, service.ScanConfig{
		TokenParameter:   tokenKey,
		DefaultCompanyID: 1,
	}, log)
	printSvc := service.NewPrintService(quants, catalog, barcodes, 1, log)
	reportSvc := service.NewReportService(quants)

	tokens := auth.NewManager(&config.JWTConfig{
		Secret:       "test-secret",
		AccessExpiry: time.Hour,
		Issuer:       "quantscan-test",
	})

	r := chi.NewRouter()
	r.Use(httputil.RequestID)
	r.Use(httputil.Recoverer(log))
	handler.Routes(r, handler.Handlers{
		Scan:   handler.NewScanHandler(scanSvc, log),
		Quant:  handler.NewQuantHandler(quantSvc, barcodes, log),
		Print:  handler.NewPrintHandler(printSvc, log),
		Report: handler.NewReportHandler(reportSvc, log),
	}, handler.RouteOptions{
		Authenticate:       httputil.Authenticate(tokens, 1, log),
		DebugTokenEndpoint: debugToken,
	})

	return &testEnv{router: r, tokens: tokens, publisher: publisher}
}

func (e *testEnv) bearer(t *testing.T) string {
	t.Helper()
	return e.bearerFor(t, permissions.RoleManager)
}

func (e *testEnv) bearerFor(t *testing.T, role string) string {
	t.Helper()
	token, _, err := e.tokens.GenerateAccessToken(&auth.UserInfo{
		ID:        "user-1",
		Email:     "stock@example.com",
		Name:      "Stock Manager",
		Role:      role,
		CompanyID: 1,
	})
	require.NoError(t, err)
	return token
}

func expectToken(m *testutil.MockDB, value string) {
	m.ExpectQuery(paramQuery).WithArgs(tokenKey).WillReturnRows(testutil.MockRows("value").AddRow(value))
}

func postRaw(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestScan_GetUnauthorized(t *testing.T) {
	m := testutil.NewMockDB(t)
	env := newTestEnv(t, m.DB, false)
	expectToken(m, "s3cret")

	rr := testutil.ExecuteRequest(env.router,
		testutil.NewHTTPRequest(http.MethodGet, "/stock_quantity_scan/scan?code=PKG0000005&token=nope", nil))

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.JSONEq(t, `{"ok":false,"error":"unauthorized"}`, rr.Body.String())
	m.ExpectationsWereMet(t)
}

func TestScan_GetMissingCode(t *testing.T) {
	m := testutil.NewMockDB(t)
	env := newTestEnv(t, m.DB, false)
	expectToken(m, "s3cret")

	rr := testutil.ExecuteRequest(env.router,
		testutil.NewHTTPRequest(http.MethodGet, "/stock_quantity_scan/scan?code=%20%20&token=%20s3cret%20", nil))

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.JSONEq(t, `{"ok":false,"error":"missing_code"}`, rr.Body.String())
}

func TestScanJSON_FlatNotFoundEchoesNumericCode(t *testing.T) {
	m := testutil.NewMockDB(t)
	env := newTestEnv(t, m.DB, false)
	expectToken(m, "s3cret")
	m.Mock.ExpectQuery("FROM stock_quants").WithArgs("12345", int64(3)).WillReturnRows(testutil.QuantRows())
	m.Mock.ExpectQuery("FROM stock_quants").WithArgs("12345", int64(3)).WillReturnRows(testutil.QuantRows())

	rr := testutil.ExecuteRequest(env.router, postRaw("/stock_quantity_scan/scan_json",
		`{"code": 12345, "token": "s3cret", "product_tmpl_id": "3"}`))

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.JSONEq(t, `{"ok":false,"error":"not_found","scanned":"12345"}`, rr.Body.String())
	m.ExpectationsWereMet(t)
}

func TestScanJSON_EnvelopeAnsweredInEnvelope(t *testing.T) {
	m := testutil.NewMockDB(t)
	env := newTestEnv(t, m.DB, false)
	expectToken(m, "s3cret")

	rr := testutil.ExecuteRequest(env.router, postRaw("/stock_quantity_scan/scan_json",
		`{"jsonrpc": "2.0", "id": 7, "method": "call", "params": {"code": "PKG0000005", "token": "wrong"}}`))

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":7,"result":{"ok":false,"error":"unauthorized"}}`, rr.Body.String())
}

func TestScanJSON_EnvelopeWithoutID(t *testing.T) {
	m := testutil.NewMockDB(t)
	env := newTestEnv(t, m.DB, false)
	expectToken(m, "s3cret")

	rr := testutil.ExecuteRequest(env.router, postRaw("/stock_quantity_scan/scan_json",
		`{"params": {"token": "s3cret"}}`))

	assert.JSONEq(t, `{"jsonrpc":"2.0","id":null,"result":{"ok":false,"error":"missing_code"}}`, rr.Body.String())
}

func TestScanJSON_InvalidBodyIsUnauthorized(t *testing.T) {
	m := testutil.NewMockDB(t)
	env := newTestEnv(t, m.DB, false)
	expectToken(m, "s3cret")

	rr := testutil.ExecuteRequest(env.router, postRaw("/stock_quantity_scan/scan_json", `{not json`))

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.JSONEq(t, `{"ok":false,"error":"unauthorized"}`, rr.Body.String())
}

func TestScanJSON_EmptyBody(t *testing.T) {
	m := testutil.NewMockDB(t)
	env := newTestEnv(t, m.DB, false)
	expectToken(m, "s3cret")

	rr := testutil.ExecuteRequest(env.router, postRaw("/stock_quantity_scan/scan_json", ""))

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.JSONEq(t, `{"ok":false,"error":"unauthorized"}`, rr.Body.String())
}

func TestDebugToken_NotMountedByDefault(t *testing.T) {
	m := testutil.NewMockDB(t)
	env := newTestEnv(t, m.DB, false)

	req := testutil.WithBearer(postRaw("/stock_quantity_scan/_debug_token", `{"token":"x"}`), env.bearer(t))
	rr := testutil.ExecuteRequest(env.router, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDebugToken_RequiresBearer(t *testing.T) {
	m := testutil.NewMockDB(t)
	env := newTestEnv(t, m.DB, true)

	rr := testutil.ExecuteRequest(env.router, postRaw("/stock_quantity_scan/_debug_token", `{"token":"x"}`))

	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
}

func TestDebugToken_Echo(t *testing.T) {
	m := testutil.NewMockDB(t)
	env := newTestEnv(t, m.DB, true)
	expectToken(m, " s3cret\n")

	req := testutil.WithBearer(postRaw("/stock_quantity_scan/_debug_token", `{"token":"s3cret "}`), env.bearer(t))
	rr := testutil.ExecuteRequest(env.router, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.JSONEq(t, `{"given_token":"s3cret","system_token":"s3cret","equal":true}`, rr.Body.String())
}

func TestManagementAPI_RequiresBearer(t *testing.T) {
	m := testutil.NewMockDB(t)
	env := newTestEnv(t, m.DB, false)

	paths := []string{
		"/api/v1/stock/quants/1",
		"/api/v1/stock/products/3/eligible-lots",
		"/api/v1/stock/reports/chalan/data?quant_ids=1",
	}
	for _, p := range paths {
		rr := testutil.ExecuteRequest(env.router, testutil.NewHTTPRequest(http.MethodGet, p, nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code, p)
	}

	rr := testutil.ExecuteRequest(env.router,
		testutil.WithBearer(testutil.NewHTTPRequest(http.MethodGet, "/api/v1/stock/quants/1", nil), "garbage"))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestQuantHandler_BadRequests(t *testing.T) {
	m := testutil.NewMockDB(t)
	env := newTestEnv(t, m.DB, false)
	token := env.bearer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"invalid id", http.MethodGet, "/api/v1/stock/quants/abc", "", http.StatusBadRequest, "BAD_REQUEST"},
		{"zero id", http.MethodGet, "/api/v1/stock/quants/0", "", http.StatusBadRequest, "BAD_REQUEST"},
		{"invalid json", http.MethodPost, "/api/v1/stock/quants", "{", http.StatusBadRequest, "BAD_REQUEST"},
		{"negative weight", http.MethodPost, "/api/v1/stock/quants", `{"product_id":1,"location_id":2,"net_weight":-1}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"missing product", http.MethodPost, "/api/v1/stock/quants", `{"location_id":2}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"print without format", http.MethodPost, "/api/v1/stock/print", `{"product_tmpl_id":3}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"print bad format", http.MethodPost, "/api/v1/stock/print", `{"product_tmpl_id":3,"format":"pdf"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad location filter", http.MethodPost, "/api/v1/stock/products/3/print-lot-barcodes?location_id=x", "", http.StatusBadRequest, "BAD_REQUEST"},
		{"bad quant ids", http.MethodGet, "/api/v1/stock/reports/chalan/data?quant_ids=1,x", "", http.StatusBadRequest, "BAD_REQUEST"},
		{"report without selection", http.MethodGet, "/api/v1/stock/reports/chalan/data", "", http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown report", http.MethodGet, "/api/v1/stock/reports/invoice/data?quant_ids=1", "", http.StatusNotFound, "NOT_FOUND"},
		{"unsupported output", http.MethodGet, "/api/v1/stock/reports/barcode/render?quant_ids=1&output=xlsx", "", http.StatusBadRequest, "BAD_REQUEST"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var req *http.Request
			if tc.method == http.MethodGet {
				req = testutil.NewHTTPRequest(tc.method, tc.path, nil)
			} else {
				req = postRaw(tc.path, tc.body)
			}
			rr := testutil.ExecuteRequest(env.router, testutil.WithBearer(req, token))

			testutil.AssertStatus(t, rr, tc.status)

			var resp httputil.Response
			testutil.ParseJSONBody(t, rr, &resp)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.code, resp.Error.Code)
		})
	}
	m.ExpectationsWereMet(t)
}

func TestQuantHandler_GetNotFound(t *testing.T) {
	m := testutil.NewMockDB(t)
	env := newTestEnv(t, m.DB, false)
	m.Mock.ExpectQuery("FROM stock_quants").WithArgs(int64(99)).WillReturnRows(testutil.QuantRows())

	req := testutil.WithBearer(testutil.NewHTTPRequest(http.MethodGet, "/api/v1/stock/quants/99", nil), env.bearer(t))
	rr := testutil.ExecuteRequest(env.router, req)

	testutil.AssertStatus(t, rr, http.StatusNotFound)
	assert.True(t, strings.Contains(rr.Body.String(), "NOT_FOUND"))
	m.ExpectationsWereMet(t)
}

func TestManagementAPI_Permissions(t *testing.T) {
	m := testutil.NewMockDB(t)
	env := newTestEnv(t, m.DB, true)

	tests := []struct {
		name   string
		role   string
		method string
		path   string
	}{
		{"viewer cannot create", permissions.RoleViewer, http.MethodPost, "/api/v1/stock/quants"},
		{"viewer cannot print", permissions.RoleViewer, http.MethodPost, "/api/v1/stock/print"},
		{"viewer cannot generate", permissions.RoleViewer, http.MethodPost, "/api/v1/stock/products/3/generate-barcodes"},
		{"operator cannot debug", permissions.RoleOperator, http.MethodPost, "/stock_quantity_scan/_debug_token"},
		{"unknown role cannot read", "intern", http.MethodGet, "/api/v1/stock/quants/1"},
		{"unknown role cannot report", "intern", http.MethodGet, "/api/v1/stock/reports/chalan/data?quant_ids=1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := postRaw(tc.path, "{}")
			req.Method = tc.method
			rr := testutil.ExecuteRequest(env.router, testutil.WithBearer(req, env.bearerFor(t, tc.role)))

			testutil.AssertStatus(t, rr, http.StatusForbidden)
			testutil.AssertBodyContains(t, rr, "FORBIDDEN")
		})
	}
	m.ExpectationsWereMet(t)
}
