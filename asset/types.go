// Package asset models an obligation (§3 Obligation/Asset) and
// projects its per-period cash-flow strip under prepay/default/
// severity curves (§4.3). Rate and amortization variation is modeled
// as sum types rather than subtype inheritance, per the Design
// Notes' "deep attribute inheritance -> tagged variants" rule.
package asset

import (
	"time"

	"github.com/meenmo-clo/engine/calendar"
	"github.com/meenmo-clo/engine/errs"
	"github.com/meenmo-clo/engine/money"
	"github.com/meenmo-clo/engine/rating"
)

type Kind string

const (
	Bond Kind = "BOND"
	Loan Kind = "LOAN"
)

type Seniority string

const (
	SeniorSecured   Seniority = "SENIOR_SECURED"
	SeniorUnsecured Seniority = "SENIOR_UNSECURED"
	Subordinate     Seniority = "SUBORDINATE"
)

// RateSpec is the tagged variant for an obligation's coupon: Fixed or
// Float. Exactly one of the embedded pointers is non-nil.
type RateSpec struct {
	Fixed *FixedRate
	Float *FloatRate
}

type FixedRate struct {
	Coupon money.Rate
}

type FloatRate struct {
	IndexName string
	Spread    money.Rate
	Floor     money.Rate
	Cap       *money.Rate // optional
}

// AmortizationSpec is the tagged variant for principal amortization:
// Bullet (all principal at maturity) or Amortizing (straight-line:
// each period repays the remaining balance divided by the remaining
// periods).
type AmortizationSpec struct {
	Bullet     *struct{}
	Amortizing *AmortizingSchedule
}

type AmortizingSchedule struct {
	// NominalRate records the obligation's coupon rate as given in
	// the input. Generate does not read it: the straight-line
	// schedule does not depend on the rate.
	NominalRate money.Rate
}

// Flags bundles the boolean attribute set §3 lists for an obligation.
type Flags struct {
	DefaultAsset   bool
	PIKEligible    bool
	CovLite        bool
	DIP            bool
	StructFinance  bool
	Revolver       bool
}

// Obligation is the per-asset record (§3). It is immutable except
// through Pool buy/sell/par-adjust operations; cash-flow generation
// yields a new immutable strip rather than mutating the obligation.
type Obligation struct {
	ID        string
	IssuerID  string
	IssueName string

	Kind      Kind
	Seniority Seniority
	Flags     Flags

	ParAmount     money.Amount
	UnfundedAmount money.Amount
	PIKBalance    money.Amount

	DatedDate            time.Time
	FirstPaymentDate     time.Time
	MaturityDate         time.Time
	PaymentFrequencyPerYear int
	DayCount             calendar.Convention
	BusinessDayConvention calendar.BusinessDayConvention
	EndOfMonth           bool

	Rate         RateSpec
	Amortization AmortizationSpec

	MoodyRating rating.MoodyRating
	SPRating    rating.SPRating
	Outlook     rating.Outlook

	RecoveryRate     *float64 // stored/overridden recovery, nil => derive from rating.RecoveryTable
	MoodyIndustry    string
	SPIndustry       string
	Country          string
}

// Validate enforces the §3 invariants, raising ValidationError on
// violation.
func (o *Obligation) Validate() error {
	const op = "asset.Validate"
	if o.ParAmount.IsNegative() {
		return errs.New(errs.Validation, op, "par_amount must be >= 0")
	}
	if !o.FirstPaymentDate.After(o.DatedDate) {
		return errs.New(errs.Validation, op, "first_payment_date must be after dated_date")
	}
	if o.Rate.Fixed != nil {
		c := o.Rate.Fixed.Coupon.Float64()
		if c < 0 || c > 1 {
			return errs.New(errs.Validation, op, "fixed coupon must be in [0,1]")
		}
	}
	if o.Rate.Float != nil {
		if o.Rate.Float.Spread.Float64() < 0 {
			return errs.New(errs.Validation, op, "float spread must be >= 0")
		}
		if o.Rate.Float.Floor.Float64() < 0 {
			return errs.New(errs.Validation, op, "float floor must be >= 0")
		}
	}
	switch o.PaymentFrequencyPerYear {
	case 1, 2, 4, 12:
	default:
		return errs.New(errs.Validation, op, "payment_frequency_per_year must be one of 1,2,4,12")
	}
	return nil
}

// EffectiveRecoveryRate returns the obligation's stored recovery
// rate, or derives it from the recovery table by seniority and kind
// if none is stored (§3).
func (o *Obligation) EffectiveRecoveryRate(tbl rating.RecoveryTable) float64 {
	if o.RecoveryRate != nil {
		return *o.RecoveryRate
	}
	return tbl.Lookup(rating.Seniority(o.Seniority), rating.AssetKind(o.Kind))
}
