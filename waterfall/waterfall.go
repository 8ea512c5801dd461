// Package waterfall implements the ordered payment-step cascade that
// routes a period's interest and principal collections to fees,
// tranches, trigger cures, reinvestment, and the residual (§3
// Waterfall; §4.8). Each step follows the contract
// apply(available) -> (paid, remainder, side_effects); side effects
// are applied to the step's own fee/tranche/trigger state inline,
// never through a back-pointer to the waterfall itself.
package waterfall

import (
	"github.com/meenmo-clo/engine/fees"
	"github.com/meenmo-clo/engine/liability"
	"github.com/meenmo-clo/engine/money"
	"github.com/meenmo-clo/engine/trigger"
)

// Step consumes up to `available` and reports how much it paid,
// mutating whatever ledger it closes over.
type Step struct {
	Name  string
	Apply func(available money.Amount) (paid money.Amount, err error)
}

// Sequence runs ordered steps, feeding each step's remainder to the
// next (§4.8 contract). Once available is exhausted, the remaining
// steps are not applied and are recorded as paid zero.
type Sequence struct {
	Steps []Step
}

// StepPayment records one step's result for the caller's audit trail.
type StepPayment struct {
	Name string
	Paid money.Amount
}

// Run applies every step in order, returning a per-step payment audit
// and the leftover amount after the last step.
func (s Sequence) Run(available money.Amount) ([]StepPayment, money.Amount, error) {
	remainder := available
	out := make([]StepPayment, 0, len(s.Steps))
	for _, step := range s.Steps {
		if remainder.IsZero() || remainder.IsNegative() {
			out = append(out, StepPayment{Name: step.Name, Paid: money.Zero})
			continue
		}
		paid, err := step.Apply(remainder)
		if err != nil {
			return out, remainder, err
		}
		remainder = remainder.Sub(paid)
		out = append(out, StepPayment{Name: step.Name, Paid: paid})
	}
	return out, remainder, nil
}

// FeeStep pays fee's period-p due amount, clamped to available.
func FeeStep(fee *fees.Fee, p int) Step {
	return Step{
		Name: "fee:" + fee.ID,
		Apply: func(available money.Amount) (money.Amount, error) {
			due := fee.Due[p].Sub(fee.Paid[p])
			paid := money.MaxZero(money.Min(due, available))
			fee.ApplyPayment(p, paid)
			return paid, nil
		},
	}
}

// TrancheInterestStep pays tranche's period-p interest due, clamped
// to available.
func TrancheInterestStep(t *liability.Tranche, p int) Step {
	return Step{
		Name: "interest:" + t.ID,
		Apply: func(available money.Amount) (money.Amount, error) {
			due := t.InterestDue[p].Sub(t.InterestPaid[p])
			paid := money.MaxZero(money.Min(due, available))
			t.ApplyPayment(p, paid)
			return paid, nil
		},
	}
}

// TrancheCureStep diverts available toward curing trig, using ratio
// and base as evaluated for the current period (§4.7).
func TrancheCureStep(trig *trigger.Trigger, ratio float64, base money.Amount) Step {
	return Step{
		Name: "cure:" + trig.ID,
		Apply: func(available money.Amount) (money.Amount, error) {
			if !trig.Breached {
				return money.Zero, nil
			}
			needed := trigger.CureAmount(ratio, trig.Threshold, base, available)
			trig.Cure(needed)
			return needed, nil
		},
	}
}

// TranchePrincipalStep pays down tranche principal sequentially by
// rank (§4.8 principal waterfall "sequential principal to tranches by
// rank").
func TranchePrincipalStep(t *liability.Tranche) Step {
	return Step{
		Name: "principal:" + t.ID,
		Apply: func(available money.Amount) (money.Amount, error) {
			return t.PayDownPrincipal(available), nil
		},
	}
}

// ReinvestmentStep diverts up to maxReinvestment into sink (the
// deal's reinvestment engine add_reinvestment call), only while the
// deal is in its reinvestment period.
func ReinvestmentStep(inReinvestmentPeriod bool, maxReinvestment money.Amount, sink func(money.Amount) error) Step {
	return Step{
		Name: "reinvestment",
		Apply: func(available money.Amount) (money.Amount, error) {
			if !inReinvestmentPeriod {
				return money.Zero, nil
			}
			amt := money.Min(available, maxReinvestment)
			if amt.IsZero() {
				return money.Zero, nil
			}
			if err := sink(amt); err != nil {
				return money.Zero, err
			}
			return amt, nil
		},
	}
}

// IncentiveFeeGateStep routes gross proceeds through gate (the
// incentive-fee component's PayIncentiveFee), paying the fee and
// passing the remainder on to the next step (§4.9).
func IncentiveFeeGateStep(gate func(gross money.Amount) (netToResidual money.Amount, feePaid money.Amount, err error)) Step {
	return Step{
		Name: "incentive-fee-gate",
		Apply: func(available money.Amount) (money.Amount, error) {
			_, feePaid, err := gate(available)
			if err != nil {
				return money.Zero, err
			}
			return feePaid, nil
		},
	}
}

// ResidualStep routes whatever remains into sink, consuming the full
// available amount (§4.8 "Residual").
func ResidualStep(sink *money.Amount) Step {
	return Step{
		Name: "residual",
		Apply: func(available money.Amount) (money.Amount, error) {
			*sink = sink.Add(available)
			return available, nil
		},
	}
}
