// Package money implements the fixed-point representation the rest
// of this engine uses for currency and rate values (Design Notes:
// "Mixed monetary/float arithmetic -> fixed-point decimal with two
// fractional digits for money, six for rates. All waterfall
// arithmetic in cents ..."). It is a thin wrapper over
// shopspring/decimal, the decimal library this lineage already
// depends on.
package money

import (
	"github.com/shopspring/decimal"
)

// moneyScale is the number of fractional digits retained for
// currency amounts: cents.
const moneyScale = 2

// rateScale is the number of fractional digits retained for rates
// (coupon, spread, floor, threshold, ...): six decimal places.
const rateScale = 6

// Amount is a currency value rounded to the cent, using banker's
// rounding at every boundary per spec §7.
type Amount struct {
	d decimal.Decimal
}

// Zero is the zero currency amount.
var Zero = Amount{d: decimal.Zero}

// NewAmount builds an Amount from a float64, rounding to the cent.
func NewAmount(v float64) Amount {
	return Amount{d: decimal.NewFromFloat(v).RoundBank(moneyScale)}
}

// NewAmountFromDecimal builds an Amount from an existing decimal,
// rounding to the cent.
func NewAmountFromDecimal(d decimal.Decimal) Amount {
	return Amount{d: d.RoundBank(moneyScale)}
}

func (a Amount) Decimal() decimal.Decimal { return a.d }

func (a Amount) Float64() float64 { f, _ := a.d.Float64(); return f }

func (a Amount) Add(b Amount) Amount { return NewAmountFromDecimal(a.d.Add(b.d)) }

func (a Amount) Sub(b Amount) Amount { return NewAmountFromDecimal(a.d.Sub(b.d)) }

// Mul multiplies the amount by a plain decimal factor (a rate, a
// day-count fraction, ...) and rounds the result to the cent.
func (a Amount) Mul(factor decimal.Decimal) Amount {
	return NewAmountFromDecimal(a.d.Mul(factor))
}

// MulRate multiplies by a Rate, converting to decimal first.
func (a Amount) MulRate(r Rate) Amount { return a.Mul(r.d) }

func (a Amount) Div(divisor decimal.Decimal) Amount {
	if divisor.IsZero() {
		return Zero
	}
	return NewAmountFromDecimal(a.d.Div(divisor))
}

func (a Amount) Neg() Amount { return Amount{d: a.d.Neg()} }

func (a Amount) IsZero() bool { return a.d.IsZero() }

func (a Amount) IsNegative() bool { return a.d.IsNegative() }

func (a Amount) IsPositive() bool { return a.d.IsPositive() }

func (a Amount) GreaterThan(b Amount) bool { return a.d.GreaterThan(b.d) }

func (a Amount) LessThan(b Amount) bool { return a.d.LessThan(b.d) }

func (a Amount) Cmp(b Amount) int { return a.d.Cmp(b.d) }

// Min returns the smaller of a and b — used throughout the waterfall
// to clamp a step's payment to what's available.
func Min(a, b Amount) Amount {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Max returns the larger of a and b, floored at zero semantics left
// to the caller (e.g. a shortfall can be negative conceptually but is
// represented as a signed Amount here).
func Max(a, b Amount) Amount {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// MaxZero clamps a to be non-negative.
func MaxZero(a Amount) Amount {
	if a.IsNegative() {
		return Zero
	}
	return a
}

func (a Amount) String() string { return a.d.StringFixed(moneyScale) }

// Rate is a decimal rate (coupon, spread, floor, threshold, hurdle,
// ...) rounded to six fractional digits.
type Rate struct {
	d decimal.Decimal
}

var ZeroRate = Rate{d: decimal.Zero}

func NewRate(v float64) Rate {
	return Rate{d: decimal.NewFromFloat(v).RoundBank(rateScale)}
}

func NewRateFromDecimal(d decimal.Decimal) Rate {
	return Rate{d: d.RoundBank(rateScale)}
}

func (r Rate) Decimal() decimal.Decimal { return r.d }

func (r Rate) Float64() float64 { f, _ := r.d.Float64(); return f }

func (r Rate) Add(o Rate) Rate { return NewRateFromDecimal(r.d.Add(o.d)) }

func (r Rate) Sub(o Rate) Rate { return NewRateFromDecimal(r.d.Sub(o.d)) }

func (r Rate) GreaterThan(o Rate) bool { return r.d.GreaterThan(o.d) }

func (r Rate) LessThan(o Rate) bool { return r.d.LessThan(o.d) }

// MaxRate returns the larger of two rates — used for floor clamping:
// max(index+spread, floor+spread).
func MaxRate(a, b Rate) Rate {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

func (r Rate) String() string { return r.d.StringFixed(rateScale) }
