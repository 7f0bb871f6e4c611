package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/quantscan/quantscan-backend/internal/stock/domain"
	"github.com/quantscan/quantscan-backend/internal/stock/events"
	"github.com/quantscan/quantscan-backend/pkg/errors"
	"github.com/quantscan/quantscan-backend/pkg/logger"
	"github.com/quantscan/quantscan-backend/pkg/testutil"
)

const (
	testSequenceCode = "stock.quant.barcode"
	testTokenKey     = "stock_quantity_scan.scan_token"
	testToken        = "s3cret"

	productWidget = int64(10) // template 3
	productGadget = int64(11) // template 4
	tmplWidget    = int64(3)
	tmplGadget    = int64(4)
	locStock      = int64(20)
	locShelf      = int64(21)
	locCustomer   = int64(30)
	lot42         = int64(7)
	lot43         = int64(8)
)

type fakeLocation struct {
	name  string
	usage string
}

// fakeStock is an in-memory stand-in for every store the services use
type fakeStock struct {
	mu          sync.Mutex
	nextID      int64
	quants      map[int64]*domain.Quant
	products    map[int64]int64
	templates   map[int64]string
	locations   map[int64]fakeLocation
	lots        map[int64]string
	adjustments []*domain.StockAdjustment
	seq         domain.Sequence
	params      map[string]string
	paramReads  int
	deleteErr   error
}

func newFakeStock() *fakeStock {
	return &fakeStock{
		nextID:    100,
		quants:    make(map[int64]*domain.Quant),
		products:  map[int64]int64{productWidget: tmplWidget, productGadget: tmplGadget},
		templates: map[int64]string{tmplWidget: "Widget", tmplGadget: "Gadget"},
		locations: map[int64]fakeLocation{
			locStock:    {"WH/Stock", domain.UsageInternal},
			locShelf:    {"WH/Shelf 2", domain.UsageInternal},
			locCustomer: {"Partners/Customers", domain.UsageCustomer},
		},
		lots:   map[int64]string{lot42: "LOT42", lot43: "LOT43"},
		seq:    domain.Sequence{ID: 1, Code: testSequenceCode, Prefix: "PKG", Padding: 7, NumberNext: 1},
		params: map[string]string{testTokenKey: testToken},
	}
}

func ptr[T any](v T) *T {
	return &v
}

func clone(q *domain.Quant) *domain.Quant {
	c := *q
	if q.LotID != nil {
		c.LotID = ptr(*q.LotID)
	}
	if q.ScanBarcode != nil {
		c.ScanBarcode = ptr(*q.ScanBarcode)
	}
	if q.LotName != nil {
		c.LotName = ptr(*q.LotName)
	}
	return &c
}

func (f *fakeStock) hydrate(q *domain.Quant) {
	q.ProductTmplID = f.products[q.ProductID]
	q.ProductTmplName = f.templates[q.ProductTmplID]
	q.ProductName = q.ProductTmplName
	loc := f.locations[q.LocationID]
	q.LocationName = loc.name
	q.LocationUsage = loc.usage
	q.LotName = nil
	if q.LotID != nil {
		q.LotName = ptr(f.lots[*q.LotID])
	}
}

// addQuant seeds a quant; a zero ID gets the next free one
func (f *fakeStock) addQuant(q domain.Quant) *domain.Quant {
	f.mu.Lock()
	defer f.mu.Unlock()
	if q.ID == 0 {
		f.nextID++
		q.ID = f.nextID
	}
	if q.CompanyID == 0 {
		q.CompanyID = 1
	}
	stored := clone(&q)
	f.hydrate(stored)
	f.quants[stored.ID] = stored
	return clone(stored)
}

func (f *fakeStock) quant(id int64) *domain.Quant {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.quants[id]
	if !ok {
		return nil
	}
	return clone(q)
}

func (f *fakeStock) sorted() []*domain.Quant {
	out := make([]*domain.Quant, 0, len(f.quants))
	for _, q := range f.quants {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.LocationID != b.LocationID {
			return a.LocationID < b.LocationID
		}
		if (a.LotID == nil) != (b.LotID == nil) {
			return b.LotID == nil
		}
		if a.LotID != nil && *a.LotID != *b.LotID {
			return *a.LotID < *b.LotID
		}
		return a.ID < b.ID
	})
	return out
}

func (f *fakeStock) barcodeUsed(code string) bool {
	for _, q := range f.quants {
		if q.Barcode() == code {
			return true
		}
	}
	return false
}

// QuantStore

func (f *fakeStock) Create(ctx context.Context, q *domain.Quant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if q.ScanBarcode != nil && f.barcodeUsed(*q.ScanBarcode) {
		return errors.Conflict("a quant with this barcode already exists")
	}
	f.nextID++
	q.ID = f.nextID
	q.CreatedAt = time.Now()
	q.UpdatedAt = q.CreatedAt
	stored := clone(q)
	f.hydrate(stored)
	f.quants[q.ID] = stored
	return nil
}

func (f *fakeStock) GetByID(ctx context.Context, id int64) (*domain.Quant, error) {
	if q := f.quant(id); q != nil {
		return q, nil
	}
	return nil, errors.NotFound("quant")
}

func (f *fakeStock) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Quant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make([]*domain.Quant, 0)
	for _, q := range f.sorted() {
		if want[q.ID] {
			out = append(out, clone(q))
		}
	}
	return out, nil
}

func (f *fakeStock) Update(ctx context.Context, q *domain.Quant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.quants[q.ID]
	if !ok {
		return errors.NotFound("quant")
	}
	stored.LocationID = q.LocationID
	stored.LotID = q.LotID
	stored.Quantity = q.Quantity
	stored.NetWeight = q.NetWeight
	stored.TareWeight = q.TareWeight
	stored.UpdatedAt = time.Now()
	f.hydrate(stored)
	return nil
}

func (f *fakeStock) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.quants[id]; !ok {
		return errors.NotFound("quant")
	}
	delete(f.quants, id)
	return nil
}

func (f *fakeStock) SetBarcode(ctx context.Context, id int64, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.quants[id]
	if !ok || q.HasBarcode() {
		return errors.Conflict("quant already has a barcode")
	}
	if f.barcodeUsed(code) {
		return errors.Conflict("a quant with this barcode already exists")
	}
	q.ScanBarcode = ptr(code)
	return nil
}

func (f *fakeStock) BarcodeExists(ctx context.Context, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.barcodeUsed(code), nil
}

func (f *fakeStock) findFirst(match func(*domain.Quant) bool, productTmplID int64) (*domain.Quant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int64, 0, len(f.quants))
	for id := range f.quants {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		q := f.quants[id]
		if !match(q) || q.Quantity <= 0 {
			continue
		}
		if productTmplID > 0 && q.ProductTmplID != productTmplID {
			continue
		}
		return clone(q), nil
	}
	return nil, errors.NotFound("quant")
}

func (f *fakeStock) FindByBarcode(ctx context.Context, code string, productTmplID int64) (*domain.Quant, error) {
	return f.findFirst(func(q *domain.Quant) bool { return q.Barcode() == code }, productTmplID)
}

func (f *fakeStock) FindByLotName(ctx context.Context, name string, productTmplID int64) (*domain.Quant, error) {
	return f.findFirst(func(q *domain.Quant) bool { return q.LotName != nil && *q.LotName == name }, productTmplID)
}

func (f *fakeStock) List(ctx context.Context, filter domain.QuantFilter) ([]*domain.Quant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Quant, 0)
	for _, q := range f.sorted() {
		switch {
		case q.Quantity <= 0:
		case filter.ProductTmplID > 0 && q.ProductTmplID != filter.ProductTmplID:
		case filter.CompanyID > 0 && q.CompanyID != filter.CompanyID:
		case filter.LocationID > 0 && q.LocationID != filter.LocationID:
		case filter.LotID > 0 && (q.LotID == nil || *q.LotID != filter.LotID):
		case filter.InternalOnly && q.LocationUsage != domain.UsageInternal:
		case filter.RequireLot && q.LotID == nil:
		default:
			out = append(out, clone(q))
		}
	}
	return out, nil
}

func (f *fakeStock) EligibleLots(ctx context.Context, productTmplID, companyID int64) ([]domain.EligibleLot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byLot := make(map[int64]*domain.EligibleLot)
	for _, q := range f.quants {
		if q.ProductTmplID != productTmplID || q.CompanyID != companyID ||
			q.LocationUsage != domain.UsageInternal || q.Quantity <= 0 || q.LotID == nil {
			continue
		}
		lot, ok := byLot[*q.LotID]
		if !ok {
			lot = &domain.EligibleLot{ID: *q.LotID, Name: *q.LotName}
			byLot[*q.LotID] = lot
		}
		lot.QuantCount++
		lot.Quantity += q.Quantity
	}
	out := make([]domain.EligibleLot, 0, len(byLot))
	for _, l := range byLot {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStock) GetQuantity(ctx context.Context, id int64) (float64, error) {
	if q := f.quant(id); q != nil {
		return q.Quantity, nil
	}
	return 0, errors.NotFound("quant")
}

// AdjustmentStore

func (f *fakeStock) Apply(ctx context.Context, adj *domain.StockAdjustment, count domain.CountFunc) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.quants[adj.QuantID]
	if !ok {
		return errors.NotFound("quant")
	}
	adj.PreviousQuantity = q.Quantity
	if count != nil {
		counted, err := count(q.Quantity)
		if err != nil {
			return err
		}
		adj.CountedQuantity = counted
	}
	adj.Difference = adj.CountedQuantity - q.Quantity
	q.Quantity = adj.CountedQuantity
	adj.ID = int64(len(f.adjustments) + 1)
	adj.CreatedAt = time.Now()
	stored := *adj
	f.adjustments = append(f.adjustments, &stored)
	return nil
}

func (f *fakeStock) ListByQuant(ctx context.Context, quantID int64) ([]*domain.StockAdjustment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.StockAdjustment, 0)
	for i := len(f.adjustments) - 1; i >= 0; i-- {
		if f.adjustments[i].QuantID == quantID {
			out = append(out, f.adjustments[i])
		}
	}
	return out, nil
}

// SequenceStore

func (f *fakeStock) GetByCode(ctx context.Context, code string) (*domain.Sequence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if code != f.seq.Code {
		return nil, errors.NotFound("sequence " + code)
	}
	seq := f.seq
	return &seq, nil
}

func (f *fakeStock) SetNumberNext(ctx context.Context, id, next int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq.NumberNext = next
	return nil
}

func (f *fakeStock) numberNext() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seq.NumberNext
}

// ParameterStore

func (f *fakeStock) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paramReads++
	return f.params[key], nil
}

func (f *fakeStock) setParam(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params[key] = value
}

// CatalogStore

func (f *fakeStock) GetProductTemplate(ctx context.Context, id int64) (*domain.ProductTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name, ok := f.templates[id]
	if !ok {
		return nil, errors.NotFound("product")
	}
	return &domain.ProductTemplate{ID: id, Name: name}, nil
}

func (f *fakeStock) GetLot(ctx context.Context, id int64) (*domain.Lot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name, ok := f.lots[id]
	if !ok {
		return nil, errors.NotFound("lot")
	}
	return &domain.Lot{ID: id, Name: name}, nil
}

// Transactor

func (f *fakeStock) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type testServices struct {
	stock     *fakeStock
	published *testutil.MockPublisher
	barcodes  *BarcodeService
	quants    *QuantService
	scan      *ScanService
	print     *PrintService
	reports   *ReportService
}

func newTestServices(t *testing.T) *testServices {
	return newTestServicesWithTTL(t, 0)
}

func newTestServicesWithTTL(t *testing.T, tokenTTL time.Duration) *testServices {
	t.Helper()

	stock := newFakeStock()
	published := testutil.NewMockPublisher()
	log := logger.Nop()
	pub := events.NewWithPublisher(published, log)

	barcodes := NewBarcodeService(stock, stock, stock, pub, testSequenceCode, log)
	quants := NewQuantService(stock, stock, barcodes, stock, pub, 1, log)

	return &testServices{
		stock:     stock,
		published: published,
		barcodes:  barcodes,
		quants:    quants,
		scan: NewScanService(stock, stock, quants, pub, ScanConfig{
			TokenParameter:   testTokenKey,
			TokenCacheTTL:    tokenTTL,
			DefaultCompanyID: 1,
		}, log),
		print:   NewPrintService(stock, stock, barcodes, 1, log),
		reports: NewReportService(stock),
	}
}
