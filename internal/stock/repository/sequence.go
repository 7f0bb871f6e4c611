package repository

import (
	"context"
	"database/sql"

	"github.com/quantscan/quantscan-backend/internal/stock/domain"
	"github.com/quantscan/quantscan-backend/pkg/database"
	"github.com/quantscan/quantscan-backend/pkg/errors"
)

// SequenceRepository handles numbering sequences
type SequenceRepository struct {
	db *database.DB
}

// NewSequenceRepository creates a new sequence repository
func NewSequenceRepository(db *database.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// GetByCode gets a sequence by its code
func (r *SequenceRepository) GetByCode(ctx context.Context, code string) (*domain.Sequence, error) {
	var seq domain.Sequence
	err := r.db.Conn(ctx).GetContext(ctx, &seq,
		`SELECT id, code, prefix, padding, number_next FROM ir_sequences WHERE code = $1`, code)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("sequence " + code)
	}
	if err != nil {
		return nil, err
	}
	return &seq, nil
}

// SetNumberNext moves the counter of a sequence
func (r *SequenceRepository) SetNumberNext(ctx context.Context, id, next int64) error {
	result, err := r.db.Conn(ctx).ExecContext(ctx,
		`UPDATE ir_sequences SET number_next = $2 WHERE id = $1`, id, next)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.NotFound("sequence")
	}
	return nil
}

// Ensure creates the sequence if no sequence with its code exists yet.
// An existing sequence is left untouched.
func (r *SequenceRepository) Ensure(ctx context.Context, seq *domain.Sequence) error {
	_, err := r.db.Conn(ctx).ExecContext(ctx, `
		INSERT INTO ir_sequences (code, prefix, padding, number_next)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO NOTHING`,
		seq.Code, seq.Prefix, seq.Padding, seq.NumberNext,
	)
	return database.MapError(err)
}
