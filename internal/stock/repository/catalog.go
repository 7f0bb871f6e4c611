package repository

import (
	"context"
	"database/sql"

	"github.com/quantscan/quantscan-backend/internal/stock/domain"
	"github.com/quantscan/quantscan-backend/pkg/database"
	"github.com/quantscan/quantscan-backend/pkg/errors"
)

// CatalogRepository reads products and lots referenced by quants
type CatalogRepository struct {
	db *database.DB
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *database.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// GetProductTemplate gets a product template by ID
func (r *CatalogRepository) GetProductTemplate(ctx context.Context, id int64) (*domain.ProductTemplate, error) {
	var tmpl domain.ProductTemplate
	err := r.db.Conn(ctx).GetContext(ctx, &tmpl, `SELECT id, name FROM product_templates WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("product")
	}
	if err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// GetLot gets a lot by ID
func (r *CatalogRepository) GetLot(ctx context.Context, id int64) (*domain.Lot, error) {
	var lot domain.Lot
	err := r.db.Conn(ctx).GetContext(ctx, &lot,
		`SELECT id, name, product_id, company_id FROM stock_lots WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("lot")
	}
	if err != nil {
		return nil, err
	}
	return &lot, nil
}
