package asset

import "github.com/shopspring/decimal"

// decimalOf converts a float64 fraction (a day-count year fraction or
// a period rate derived from one) to decimal.Decimal for use as a
// money.Amount multiplier. These intermediate values stay in float64
// per the Design Notes ("year fractions in double"); only the
// monetary result is converted back to the fixed-point Amount type.
func decimalOf(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}
