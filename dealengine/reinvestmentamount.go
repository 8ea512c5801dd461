package dealengine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meenmo-clo/engine/money"
)

func decimalOf(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

// ReinvestmentBasis selects what a period's reinvestment percentage is
// applied against (§4.11).
type ReinvestmentBasis string

const (
	// AllPrincipal reinvests against the period's total principal
	// collections.
	AllPrincipal ReinvestmentBasis = "ALL_PRINCIPAL"
	// UnscheduledPrincipal reinvests against only the period's
	// unscheduled (prepayment + recovery) principal collections.
	UnscheduledPrincipal ReinvestmentBasis = "UNSCHEDULED_PRINCIPAL"
	// NoReinvestment reinvests nothing; all principal passes through
	// to the principal waterfall.
	NoReinvestment ReinvestmentBasis = "NONE"
)

// ReinvestmentPolicy picks the (basis, pct) pair in effect for a
// period, depending on whether the deal is still inside its
// reinvestment period (§4.11: "type/pct selection depends on whether
// the analysis date falls before reinvestment_end_date").
type ReinvestmentPolicy struct {
	DuringBasis, AfterBasis ReinvestmentBasis
	DuringPct, AfterPct     float64
	ReinvestmentEndDate     time.Time
	MaturityDate            time.Time
}

// InReinvestmentPeriod reports whether analysisDate falls on or before
// the deal's reinvestment end date.
func (p ReinvestmentPolicy) InReinvestmentPeriod(analysisDate time.Time) bool {
	return !analysisDate.After(p.ReinvestmentEndDate)
}

// ReinvestmentAmount computes the period's target reinvestment amount
// from the selected basis and its corresponding pct, bounded by the
// cash actually available (§4.11):
//
//	base = principal_proceeds(p)                 if basis == ALL_PRINCIPAL
//	     = unscheduled_principal_total(p)         if basis == UNSCHEDULED_PRINCIPAL
//	     = 0                                      if basis == NONE
//	returned = base * pct
//	actual   = min(returned, availableCash)
//
// liquidate forces the basis to NONE regardless of policy, since a
// deal under liquidation stops reinvesting entirely.
func ReinvestmentAmount(policy ReinvestmentPolicy, analysisDate time.Time, liquidate bool, principalProceeds, unscheduledPrincipal, availableCash money.Amount) money.Amount {
	if liquidate {
		return money.Zero
	}

	var basis ReinvestmentBasis
	var pct float64
	if policy.InReinvestmentPeriod(analysisDate) {
		basis, pct = policy.DuringBasis, policy.DuringPct
	} else {
		basis, pct = policy.AfterBasis, policy.AfterPct
	}

	var base money.Amount
	switch basis {
	case AllPrincipal:
		base = principalProceeds
	case UnscheduledPrincipal:
		base = unscheduledPrincipal
	default:
		base = money.Zero
	}

	returned := base.Mul(decimalOf(pct))
	return money.MaxZero(money.Min(returned, availableCash))
}
