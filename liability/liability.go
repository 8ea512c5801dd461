// Package liability models a CLO tranche: balance, coupon spec,
// priority rank, PIK eligibility, deferred interest, and per-period
// interest accrual (§3 Tranche/Liability; §4.6).
package liability

import (
	"github.com/shopspring/decimal"

	"github.com/meenmo-clo/engine/errs"
	"github.com/meenmo-clo/engine/money"
)

// CouponSpec is the tagged variant for a tranche's coupon: Fixed or
// Float. Mirrors asset.RateSpec's shape for the same Design Notes
// reason (tagged variant over subtype inheritance).
type CouponSpec struct {
	Fixed *FixedCoupon
	Float *FloatCoupon
}

type FixedCoupon struct {
	Rate money.Rate
}

type FloatCoupon struct {
	Spread money.Rate
	Floor  money.Rate
}

// Tranche is one rank of the liability stack.
type Tranche struct {
	ID       string
	Rank     int // 0 = most senior
	Balance  money.Amount
	Coupon   CouponSpec
	PIKEligible bool

	DeferredInterest money.Amount
	CurrentRate      money.Rate

	// Per-period arrays, 1-indexed like asset.cashflow (index 0 unused).
	InterestDue  []money.Amount
	InterestPaid []money.Amount
}

// New allocates a Tranche with n periods of interest arrays.
func New(id string, rank int, balance money.Amount, coupon CouponSpec, pikEligible bool, n int) *Tranche {
	return &Tranche{
		ID: id, Rank: rank, Balance: balance, Coupon: coupon, PIKEligible: pikEligible,
		InterestDue:  make([]money.Amount, n+1),
		InterestPaid: make([]money.Amount, n+1),
	}
}

// ResetRate recomputes CurrentRate for period p (§4.6: "if FLOAT,
// reset current_rate = libor_p + spread, floor clamped"). Fixed
// tranches keep a constant rate.
func (t *Tranche) ResetRate(liborP money.Rate) {
	if t.Coupon.Fixed != nil {
		t.CurrentRate = t.Coupon.Fixed.Rate
		return
	}
	f := t.Coupon.Float
	t.CurrentRate = money.MaxRate(liborP.Add(f.Spread), f.Floor.Add(f.Spread))
}

// AccrueInterest computes period p's interest due: yf(prev_pay,
// next_pay) * current_rate * beg_balance, plus any carried deferred
// interest (§4.6).
func (t *Tranche) AccrueInterest(p int, yearFraction float64, begBalance money.Amount) (money.Amount, error) {
	const op = "liability.AccrueInterest"
	if p < 0 || p >= len(t.InterestDue) {
		return money.Zero, errs.New(errs.Validation, op, "period index out of range")
	}
	if yearFraction < 0 {
		return money.Zero, errs.New(errs.Validation, op, "year fraction must be >= 0")
	}
	due := begBalance.MulRate(t.CurrentRate).Mul(decimalOf(yearFraction))
	due = due.Add(t.DeferredInterest)
	t.DeferredInterest = money.Zero
	t.InterestDue[p] = due
	return due, nil
}

// ApplyPayment records how much of period p's interest due was
// actually paid by the waterfall, carrying the unpaid remainder
// forward: as deferred interest if PIK-eligible, otherwise as a
// shortfall added to next period's due (§4.6).
func (t *Tranche) ApplyPayment(p int, paid money.Amount) {
	if p < 0 || p >= len(t.InterestPaid) {
		return
	}
	t.InterestPaid[p] = paid
	shortfall := t.InterestDue[p].Sub(paid)
	if shortfall.IsPositive() {
		if t.PIKEligible {
			t.DeferredInterest = t.DeferredInterest.Add(shortfall)
			t.Balance = t.Balance.Add(shortfall)
		} else {
			t.DeferredInterest = t.DeferredInterest.Add(shortfall)
		}
	}
}

// PayDownPrincipal reduces the tranche balance by amt, clamped to the
// outstanding balance (§7: principal payment never drives a tranche
// negative).
func (t *Tranche) PayDownPrincipal(amt money.Amount) money.Amount {
	actual := money.Min(amt, t.Balance)
	if actual.IsNegative() {
		actual = money.Zero
	}
	t.Balance = t.Balance.Sub(actual)
	return actual
}

func decimalOf(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }
