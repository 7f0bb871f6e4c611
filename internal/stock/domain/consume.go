package domain

import (
	"github.com/quantscan/quantscan-backend/pkg/errors"
)

// MsgConsumeNotPositive is returned when the resolved quantity is zero or negative.
const MsgConsumeNotPositive = "Quantity to consume must be positive."

// Consumption is the outcome of resolving a consume request against a quant.
type Consumption struct {
	Previous float64
	Target   float64
	New      float64
}

// ResolveConsumption decides how much to take out of a quant holding current.
// An explicit qty wins over a quantity embedded in code; with neither the
// whole quantity is consumed. The result never goes below zero.
func ResolveConsumption(current float64, code string, qty *float64) (Consumption, error) {
	target := current
	if embedded := EmbeddedQuantity(code); embedded != nil {
		target = *embedded
	}
	if qty != nil {
		target = *qty
	}

	if !(target > 0) {
		return Consumption{}, errors.UserError(MsgConsumeNotPositive)
	}

	newQty := current - target
	if newQty < 0 {
		newQty = 0
	}

	return Consumption{Previous: current, Target: target, New: newQty}, nil
}
