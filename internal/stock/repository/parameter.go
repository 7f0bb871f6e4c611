package repository

import (
	"context"
	"database/sql"

	"github.com/quantscan/quantscan-backend/pkg/database"
)

// ParameterRepository reads and writes system parameters
type ParameterRepository struct {
	db *database.DB
}

// NewParameterRepository creates a new parameter repository
func NewParameterRepository(db *database.DB) *ParameterRepository {
	return &ParameterRepository{db: db}
}

// Get returns the value of key, or "" when the parameter is not set
func (r *ParameterRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.Conn(ctx).GetContext(ctx, &value, `SELECT value FROM config_parameters WHERE key = $1`, key)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// Set stores value under key
func (r *ParameterRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.Conn(ctx).ExecContext(ctx, `
		INSERT INTO config_parameters (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key, value,
	)
	return err
}
