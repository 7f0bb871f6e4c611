package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/quantscan/quantscan-backend/pkg/database"
)

// Fixtures inserts catalog and stock rows for integration tests
type Fixtures struct {
	db      *database.DB
	counter int64
}

// NewFixtures creates a fixture factory writing to db
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// QuantFixture describes a quant to insert. Zero LotID means no lot.
type QuantFixture struct {
	ProductID  int64
	LocationID int64
	LotID      int64
	CompanyID  int64
	Quantity   float64
	Barcode    string
	NetWeight  float64
	TareWeight float64
}

func (f *Fixtures) next() int64 {
	return atomic.AddInt64(&f.counter, 1)
}

func (f *Fixtures) insert(t *testing.T, query string, args ...interface{}) int64 {
	t.Helper()
	var id int64
	if err := f.db.QueryRowxContext(context.Background(), query, args...).Scan(&id); err != nil {
		t.Fatalf("fixture insert failed: %v", err)
	}
	return id
}

// Product creates a product template with one variant and returns both IDs
func (f *Fixtures) Product(t *testing.T, name string) (tmplID, productID int64) {
	t.Helper()
	if name == "" {
		name = fmt.Sprintf("Product %d", f.next())
	}
	tmplID = f.insert(t, `INSERT INTO product_templates (name) VALUES ($1) RETURNING id`, name)
	productID = f.insert(t, `INSERT INTO products (product_tmpl_id, name) VALUES ($1, $2) RETURNING id`, tmplID, name)
	return tmplID, productID
}

// Location creates a stock location with the given usage
func (f *Fixtures) Location(t *testing.T, name, usage string, companyID int64) int64 {
	t.Helper()
	if name == "" {
		name = fmt.Sprintf("WH/Stock %d", f.next())
	}
	return f.insert(t, `INSERT INTO stock_locations (name, usage, company_id) VALUES ($1, $2, $3) RETURNING id`,
		name, usage, companyID)
}

// Lot creates a lot of a product
func (f *Fixtures) Lot(t *testing.T, name string, productID, companyID int64) int64 {
	t.Helper()
	return f.insert(t, `INSERT INTO stock_lots (name, product_id, company_id) VALUES ($1, $2, $3) RETURNING id`,
		name, productID, companyID)
}

// Quant creates a quant directly, bypassing barcode assignment
func (f *Fixtures) Quant(t *testing.T, q QuantFixture) int64 {
	t.Helper()
	var lotID, barcode interface{}
	if q.LotID > 0 {
		lotID = q.LotID
	}
	if q.Barcode != "" {
		barcode = q.Barcode
	}
	if q.CompanyID == 0 {
		q.CompanyID = 1
	}
	return f.insert(t, `
		INSERT INTO stock_quants (product_id, location_id, lot_id, company_id, quantity, scan_barcode, net_weight, tare_weight)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		q.ProductID, q.LocationID, lotID, q.CompanyID, q.Quantity, barcode, q.NetWeight, q.TareWeight)
}
