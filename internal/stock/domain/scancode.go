package domain

import (
	"math"
	"strconv"
	"strings"
)

// ParseScanCode splits a scanned string of the form BASE or BASE/QTY[/...]
// into its base and optional quantity. Surrounding whitespace is ignored.
func ParseScanCode(raw string) (string, *float64) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	base, _, _ := strings.Cut(raw, "/")
	return base, EmbeddedQuantity(raw)
}

// EmbeddedQuantity returns the number between the first and second "/" of
// code, or nil when there is none or it is not a finite number.
func EmbeddedQuantity(code string) *float64 {
	_, tail, found := strings.Cut(code, "/")
	if !found {
		return nil
	}
	tail, _, _ = strings.Cut(tail, "/")

	qty, err := strconv.ParseFloat(strings.TrimSpace(tail), 64)
	if err != nil || math.IsNaN(qty) || math.IsInf(qty, 0) {
		return nil
	}
	return &qty
}

// NormalizeScanCode rebuilds BASE/QTY from parsed parts, dropping any
// trailing segments.
func NormalizeScanCode(base string, qty *float64) string {
	if qty == nil {
		return base
	}
	return base + "/" + strconv.FormatFloat(*qty, 'f', -1, 64)
}
