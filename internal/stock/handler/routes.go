package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/quantscan/quantscan-backend/pkg/httputil"
	"github.com/quantscan/quantscan-backend/pkg/permissions"
)

// Handlers bundles the stock handlers mounted by Routes
type Handlers struct {
	Scan   *ScanHandler
	Quant  *QuantHandler
	Print  *PrintHandler
	Report *ReportHandler
}

// RouteOptions controls authentication and the optional debug route
type RouteOptions struct {
	// Authenticate guards the management API and the debug route
	Authenticate func(http.Handler) http.Handler
	// DebugTokenEndpoint mounts POST /stock_quantity_scan/_debug_token
	DebugTokenEndpoint bool
}

// Routes mounts the public scanner routes and the management API on r
func Routes(r chi.Router, h Handlers, opts RouteOptions) {
	read := httputil.RequirePermission(permissions.StockRead)
	write := httputil.RequirePermission(permissions.StockWrite)
	printing := httputil.RequirePermission(permissions.StockPrint)

	r.Route("/stock_quantity_scan", func(r chi.Router) {
		r.Get("/scan", h.Scan.Scan)
		r.Post("/scan_json", h.Scan.ScanJSON)

		if opts.DebugTokenEndpoint {
			r.With(opts.Authenticate, httputil.RequirePermission(permissions.StockScanDebug)).
				Post("/_debug_token", h.Scan.DebugToken)
		}
	})

	r.Route("/api/v1/stock", func(r chi.Router) {
		r.Use(opts.Authenticate)

		r.Route("/quants", func(r chi.Router) {
			r.With(write).Post("/", h.Quant.Create)
			r.With(read).Get("/{id}", h.Quant.Get)
			r.With(write).Put("/{id}", h.Quant.Update)
			r.With(write).Post("/{id}/generate-barcode", h.Quant.GenerateBarcode)
			r.With(write).Post("/{id}/consume", h.Quant.Consume)
			r.With(read).Get("/{id}/adjustments", h.Quant.History)
		})

		r.Route("/products", func(r chi.Router) {
			r.With(read).Get("/{id}/eligible-lots", h.Print.EligibleLots)
			r.With(write).Post("/{id}/generate-barcodes", h.Print.GenerateBarcodes)
			r.With(printing).Post("/{id}/print-lot-barcodes", h.Print.PrintLotBarcodes)
		})

		r.With(printing).Post("/print", h.Print.Print)

		r.Route("/reports", func(r chi.Router) {
			r.Use(httputil.RequirePermission(permissions.StockReportsRead))
			r.Get("/{kind}/data", h.Report.Data)
			r.Get("/{kind}/render", h.Report.Render)
		})
	})
}
