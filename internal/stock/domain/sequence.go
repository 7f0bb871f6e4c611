package domain

import (
	"context"
	"fmt"
)

// Sequence is a numbering sequence used to mint quant barcodes.
type Sequence struct {
	ID         int64  `json:"id" db:"id"`
	Code       string `json:"code" db:"code"`
	Prefix     string `json:"prefix" db:"prefix"`
	Padding    int    `json:"padding" db:"padding"`
	NumberNext int64  `json:"number_next" db:"number_next"`
}

// Format renders number with the sequence prefix, zero-padded to Padding digits.
func (s *Sequence) Format(number int64) string {
	return fmt.Sprintf("%s%0*d", s.Prefix, s.Padding, number)
}

// BarcodeTaken reports whether a quant already carries code.
type BarcodeTaken func(ctx context.Context, code string) (bool, error)

// Allocate returns the first code at or after NumberNext that taken does not
// report as used, together with its number. The caller persists the code and
// moves NumberNext to number+1. No lock is held; a concurrent allocator can
// pick the same code and the unique index on scan_barcode decides the winner.
func Allocate(ctx context.Context, seq *Sequence, taken BarcodeTaken) (string, int64, error) {
	number := seq.NumberNext
	for {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}

		code := seq.Format(number)
		used, err := taken(ctx, code)
		if err != nil {
			return "", 0, fmt.Errorf("failed to check barcode %s: %w", code, err)
		}
		if !used {
			return code, number, nil
		}
		number++
	}
}
