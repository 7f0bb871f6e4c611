package database

import (
	stderrors "errors"
	"strings"

	"github.com/lib/pq"
	"github.com/quantscan/quantscan-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	var pqErr *pq.Error
	if !stderrors.As(err, &pqErr) {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505)
	case "23505":
		return errors.Conflict(formatConstraintMessage(pqErr))

	// Foreign key violation (23503)
	case "23503":
		return errors.BadRequest("referenced record does not exist")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}

// MapError returns the mapped AppError for PostgreSQL errors and err unchanged otherwise.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if appErr := MapPQError(err); appErr != nil {
		appErr.Err = err
		return appErr
	}
	return err
}

func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "usage_valid"):
		return errors.Validation(map[string]string{
			"usage": "must be one of: internal, view, supplier, customer, inventory, transit",
		})

	case strings.Contains(constraint, "padding"):
		return errors.Validation(map[string]string{
			"padding": "must not be negative",
		})

	case strings.Contains(constraint, "weight"):
		return errors.Validation(map[string]string{
			"weight": "must not be negative",
		})

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

func formatConstraintMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "scan_barcode"):
		return "a quant with this barcode already exists"
	case strings.Contains(constraint, "ir_sequences_code"):
		return "a sequence with this code already exists"
	case strings.Contains(constraint, "stock_lots"):
		return "a lot with this name already exists for the product"
	default:
		return "a record with these values already exists"
	}
}
