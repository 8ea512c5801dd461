package asset

import "math"

// AnnualRateCurve is an annual-rate vector or scalar (prepay, default,
// or severity curve per §3/§4.3). A nil or empty Vector falls back to
// Scalar for every period.
type AnnualRateCurve struct {
	Scalar float64
	Vector []float64 // 0-indexed by period-1 when non-empty
}

// At returns the annual rate applicable to period p (1-indexed).
func (c AnnualRateCurve) At(p int) float64 {
	if len(c.Vector) == 0 {
		return c.Scalar
	}
	idx := p - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(c.Vector) {
		idx = len(c.Vector) - 1
	}
	return c.Vector[idx]
}

// PeriodRate converts an annual rate to the rate applicable over one
// accrual period under the period's own day-count year fraction
// (§4.3 step 1): period_rate = 1 - (1-annual)^(yf^-1)... expressed
// here as 1 - (1-annual)^yf, which is the standard annual-to-period
// rate conversion used throughout this engine (yf is the period's
// year fraction).
func PeriodRate(annual float64, yf float64) float64 {
	if annual <= 0 {
		return 0
	}
	if annual >= 1 {
		return 1
	}
	return 1 - math.Pow(1-annual, yf)
}
