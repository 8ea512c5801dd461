package asset

import "github.com/meenmo-clo/engine/money"

// amortizingSchedPrincipal implements §4.3 step 3's amortizing
// variant: "divide remaining balance by remaining periods" —
// straight-line amortization of the post-default basis over the
// periods left to maturity (Design Notes §9: amortization type is a
// tagged AmortizationSpec variant, not a coupon-type subclass).
func amortizingSchedPrincipal(basis money.Amount, remainingPeriods int, isFinal bool) money.Amount {
	if isFinal || remainingPeriods <= 1 {
		return basis
	}
	return basis.Div(decimalOf(float64(remainingPeriods)))
}
