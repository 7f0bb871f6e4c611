package repository

import (
	"context"
	"database/sql"

	"github.com/quantscan/quantscan-backend/internal/stock/domain"
	"github.com/quantscan/quantscan-backend/pkg/database"
	"github.com/quantscan/quantscan-backend/pkg/errors"
)

// AdjustmentRepository applies inventory corrections to quants
type AdjustmentRepository struct {
	db *database.DB
}

// NewAdjustmentRepository creates a new adjustment repository
func NewAdjustmentRepository(db *database.DB) *AdjustmentRepository {
	return &AdjustmentRepository{db: db}
}

// Apply sets the counted quantity on a quant and records the adjustment in
// one transaction. The quant row is locked while the previous quantity is
// read. When count is set it computes CountedQuantity from that locked value,
// so concurrent adjustments apply one after the other.
func (r *AdjustmentRepository) Apply(ctx context.Context, adj *domain.StockAdjustment, count domain.CountFunc) error {
	return r.db.WithTx(ctx, func(ctx context.Context) error {
		conn := r.db.Conn(ctx)

		err := conn.GetContext(ctx, &adj.PreviousQuantity,
			`SELECT quantity FROM stock_quants WHERE id = $1 FOR UPDATE`, adj.QuantID)
		if err == sql.ErrNoRows {
			return errors.NotFound("quant")
		}
		if err != nil {
			return err
		}

		if count != nil {
			counted, err := count(adj.PreviousQuantity)
			if err != nil {
				return err
			}
			adj.CountedQuantity = counted
		}
		adj.Difference = adj.CountedQuantity - adj.PreviousQuantity

		if _, err := conn.ExecContext(ctx,
			`UPDATE stock_quants SET quantity = $2, updated_at = NOW() WHERE id = $1`,
			adj.QuantID, adj.CountedQuantity,
		); err != nil {
			return err
		}

		query := `
			INSERT INTO stock_adjustments (
				quant_id, previous_quantity, counted_quantity, difference, reason, performed_by
			) VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at
		`

		return conn.QueryRowxContext(ctx, query,
			adj.QuantID, adj.PreviousQuantity, adj.CountedQuantity, adj.Difference,
			adj.Reason, adj.PerformedBy,
		).Scan(&adj.ID, &adj.CreatedAt)
	})
}

// ListByQuant returns the adjustment history of a quant, newest first
func (r *AdjustmentRepository) ListByQuant(ctx context.Context, quantID int64) ([]*domain.StockAdjustment, error) {
	query := `
		SELECT id, quant_id, previous_quantity, counted_quantity, difference, reason, performed_by, created_at
		FROM stock_adjustments WHERE quant_id = $1
		ORDER BY created_at DESC, id DESC
	`

	adjustments := make([]*domain.StockAdjustment, 0)
	if err := r.db.Conn(ctx).SelectContext(ctx, &adjustments, query, quantID); err != nil {
		return nil, err
	}
	return adjustments, nil
}
