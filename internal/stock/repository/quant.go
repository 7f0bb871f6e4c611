package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/quantscan/quantscan-backend/internal/stock/domain"
	"github.com/quantscan/quantscan-backend/pkg/database"
	"github.com/quantscan/quantscan-backend/pkg/errors"
)

const quantSelect = `
	SELECT q.id, q.product_id, q.location_id, q.lot_id, q.company_id, q.quantity,
	       q.scan_barcode, q.net_weight, q.tare_weight, q.created_at, q.updated_at,
	       p.product_tmpl_id, p.name AS product_name, pt.name AS product_tmpl_name,
	       l.name AS location_name, l.usage AS location_usage, lot.name AS lot_name
	FROM stock_quants q
	JOIN products p ON p.id = q.product_id
	JOIN product_templates pt ON pt.id = p.product_tmpl_id
	JOIN stock_locations l ON l.id = q.location_id
	LEFT JOIN stock_lots lot ON lot.id = q.lot_id`

const quantOrder = ` ORDER BY q.location_id, q.lot_id, q.id`

// QuantRepository handles quant persistence
type QuantRepository struct {
	db *database.DB
}

// NewQuantRepository creates a new quant repository
func NewQuantRepository(db *database.DB) *QuantRepository {
	return &QuantRepository{db: db}
}

// Create inserts a quant and fills its ID and timestamps
func (r *QuantRepository) Create(ctx context.Context, q *domain.Quant) error {
	query := `
		INSERT INTO stock_quants (
			product_id, location_id, lot_id, company_id, quantity,
			scan_barcode, net_weight, tare_weight
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.db.Conn(ctx).QueryRowxContext(ctx, query,
		q.ProductID, q.LocationID, q.LotID, q.CompanyID, q.Quantity,
		q.ScanBarcode, q.NetWeight, q.TareWeight,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)

	return database.MapError(err)
}

// GetByID gets a quant with its product, location and lot details
func (r *QuantRepository) GetByID(ctx context.Context, id int64) (*domain.Quant, error) {
	var q domain.Quant
	err := r.db.Conn(ctx).GetContext(ctx, &q, quantSelect+` WHERE q.id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("quant")
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// GetByIDs returns the given quants in print order. Unknown IDs are skipped.
func (r *QuantRepository) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Quant, error) {
	quants := make([]*domain.Quant, 0, len(ids))
	if len(ids) == 0 {
		return quants, nil
	}

	query := quantSelect + ` WHERE q.id = ANY($1)` + quantOrder
	if err := r.db.Conn(ctx).SelectContext(ctx, &quants, query, pq.Array(ids)); err != nil {
		return nil, err
	}
	return quants, nil
}

// Update writes the editable fields of a quant
func (r *QuantRepository) Update(ctx context.Context, q *domain.Quant) error {
	query := `
		UPDATE stock_quants SET
			location_id = $2, lot_id = $3, quantity = $4,
			net_weight = $5, tare_weight = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.Conn(ctx).QueryRowxContext(ctx, query,
		q.ID, q.LocationID, q.LotID, q.Quantity, q.NetWeight, q.TareWeight,
	).Scan(&q.UpdatedAt)
	if err == sql.ErrNoRows {
		return errors.NotFound("quant")
	}
	return database.MapError(err)
}

// Delete removes a quant
func (r *QuantRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Conn(ctx).ExecContext(ctx, `DELETE FROM stock_quants WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.NotFound("quant")
	}
	return nil
}

// SetBarcode stores code on a quant that has none yet. A quant that got a
// barcode in the meantime yields a conflict, as does a code already used
// by another quant.
func (r *QuantRepository) SetBarcode(ctx context.Context, id int64, code string) error {
	query := `
		UPDATE stock_quants SET scan_barcode = $2, updated_at = NOW()
		WHERE id = $1 AND scan_barcode IS NULL
	`

	result, err := r.db.Conn(ctx).ExecContext(ctx, query, id, code)
	if err != nil {
		return database.MapError(err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.Conflict("quant already has a barcode")
	}
	return nil
}

// BarcodeExists reports whether any quant carries code
func (r *QuantRepository) BarcodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.Conn(ctx).GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM stock_quants WHERE scan_barcode = $1)`, code)
	return exists, err
}

// FindByBarcode finds a quant with positive quantity by its scan barcode,
// optionally restricted to a product template (0 means any).
func (r *QuantRepository) FindByBarcode(ctx context.Context, code string, productTmplID int64) (*domain.Quant, error) {
	return r.findOne(ctx, "q.scan_barcode = $1", code, productTmplID)
}

// FindByLotName finds a quant with positive quantity by the name of its lot,
// optionally restricted to a product template (0 means any).
func (r *QuantRepository) FindByLotName(ctx context.Context, name string, productTmplID int64) (*domain.Quant, error) {
	return r.findOne(ctx, "lot.name = $1", name, productTmplID)
}

func (r *QuantRepository) findOne(ctx context.Context, match string, value string, productTmplID int64) (*domain.Quant, error) {
	query := quantSelect + ` WHERE ` + match + ` AND q.quantity > 0`
	args := []interface{}{value}
	if productTmplID > 0 {
		query += ` AND p.product_tmpl_id = $2`
		args = append(args, productTmplID)
	}
	query += ` ORDER BY q.id LIMIT 1`

	var q domain.Quant
	err := r.db.Conn(ctx).GetContext(ctx, &q, query, args...)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("quant")
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// List returns quants with positive quantity matching the filter, in print order
func (r *QuantRepository) List(ctx context.Context, f domain.QuantFilter) ([]*domain.Quant, error) {
	conditions := []string{"q.quantity > 0"}
	args := []interface{}{}

	add := func(cond string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if f.ProductTmplID > 0 {
		add("p.product_tmpl_id = $%d", f.ProductTmplID)
	}
	if f.CompanyID > 0 {
		add("q.company_id = $%d", f.CompanyID)
	}
	if f.LocationID > 0 {
		add("q.location_id = $%d", f.LocationID)
	}
	if f.LotID > 0 {
		add("q.lot_id = $%d", f.LotID)
	}
	if f.InternalOnly {
		conditions = append(conditions, "l.usage = 'internal'")
	}
	if f.RequireLot {
		conditions = append(conditions, "q.lot_id IS NOT NULL")
	}

	query := quantSelect + ` WHERE ` + strings.Join(conditions, " AND ") + quantOrder

	quants := make([]*domain.Quant, 0)
	if err := r.db.Conn(ctx).SelectContext(ctx, &quants, query, args...); err != nil {
		return nil, err
	}
	return quants, nil
}

// EligibleLots returns the lots of a product template that have on-hand
// quantity in internal locations of the company, one row per lot.
func (r *QuantRepository) EligibleLots(ctx context.Context, productTmplID, companyID int64) ([]domain.EligibleLot, error) {
	query := `
		SELECT lot.id, lot.name, COUNT(q.id) AS quant_count, SUM(q.quantity) AS quantity
		FROM stock_quants q
		JOIN products p ON p.id = q.product_id
		JOIN stock_locations l ON l.id = q.location_id
		JOIN stock_lots lot ON lot.id = q.lot_id
		WHERE p.product_tmpl_id = $1
		  AND q.company_id = $2
		  AND l.usage = 'internal'
		  AND q.quantity > 0
		GROUP BY lot.id, lot.name
		ORDER BY lot.name, lot.id
	`

	lots := make([]domain.EligibleLot, 0)
	if err := r.db.Conn(ctx).SelectContext(ctx, &lots, query, productTmplID, companyID); err != nil {
		return nil, err
	}
	return lots, nil
}

// GetQuantity reads the current on-hand quantity
func (r *QuantRepository) GetQuantity(ctx context.Context, id int64) (float64, error) {
	var qty float64
	err := r.db.Conn(ctx).GetContext(ctx, &qty, `SELECT quantity FROM stock_quants WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return 0, errors.NotFound("quant")
	}
	return qty, err
}
