// Package trigger implements the OC/IC coverage tests that gate
// principal and interest diversion in the waterfall (§3 Trigger;
// §4.7).
package trigger

import (
	"github.com/shopspring/decimal"

	"github.com/meenmo-clo/engine/money"
)

func decimalOf(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

// Kind distinguishes an Over-Collateralization test from an
// Interest-Coverage test.
type Kind string

const (
	OC Kind = "OC"
	IC Kind = "IC"
)

// Trigger is one coverage test protecting a tranche rank. Breached
// persists across periods; CuredAmount accumulates within a period and
// is cleared by ResetPeriod at roll-forward. The tranche it
// protects is referenced by rank id, not a pointer, per the no-back-
// pointers design rule.
type Trigger struct {
	ID              string
	Kind            Kind
	Threshold       float64
	ProtectedRank   int
	Breached        bool
	CuredAmount     money.Amount
}

// New builds an un-breached Trigger.
func New(id string, kind Kind, threshold float64, protectedRank int) *Trigger {
	return &Trigger{ID: id, Kind: kind, Threshold: threshold, ProtectedRank: protectedRank}
}

// OCRatio computes (performing par + principal cash + mv of defaulted
// − CCC haircut) / tranche-and-senior balance (§4.7).
func OCRatio(performingPar, principalCash, mvDefaulted, cccHaircut, tranchesAndSeniorBalance money.Amount) float64 {
	if tranchesAndSeniorBalance.IsZero() {
		return 0
	}
	numerator := performingPar.Add(principalCash).Add(mvDefaulted).Sub(cccHaircut)
	return numerator.Float64() / tranchesAndSeniorBalance.Float64()
}

// ICRatio computes interest proceeds / tranche-and-senior interest
// due (§4.7).
func ICRatio(interestProceeds, tranchesAndSeniorInterestDue money.Amount) float64 {
	if tranchesAndSeniorInterestDue.IsZero() {
		return 0
	}
	return interestProceeds.Float64() / tranchesAndSeniorInterestDue.Float64()
}

// Evaluate updates Breached from the current ratio and returns
// whether the trigger is breached this period.
func (t *Trigger) Evaluate(ratio float64) bool {
	t.Breached = ratio < t.Threshold
	return t.Breached
}

// CureAmount returns how much of `available` is needed to cure this
// trigger given the current ratio and the base the ratio divides
// (numerator moves one-for-one with principal/interest diverted; the
// base is held fixed for the single-period cure calculation, matching
// §4.7's "divert sufficient principal/interest ... until ratio >=
// threshold").
func CureAmount(ratio float64, threshold float64, base money.Amount, available money.Amount) money.Amount {
	if ratio >= threshold || base.IsZero() {
		return money.Zero
	}
	shortfallRatio := threshold - ratio
	needed := base.Mul(decimalOf(shortfallRatio))
	return money.Min(needed, available)
}

// Cure applies amt toward this trigger's cure for the period (cure
// ordering across multiple triggers is the caller's responsibility,
// applying triggers senior-to-junior in sequence).
func (t *Trigger) Cure(amt money.Amount) {
	t.CuredAmount = t.CuredAmount.Add(amt)
}

// ResetPeriod clears the per-period cured amount at period roll
// (breach status persists until re-evaluated next period).
func (t *Trigger) ResetPeriod() {
	t.CuredAmount = money.Zero
}
