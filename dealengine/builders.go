package dealengine

import (
	"github.com/meenmo-clo/engine/money"
	"github.com/meenmo-clo/engine/trigger"
	"github.com/meenmo-clo/engine/waterfall"
)

// triggerForRank returns the trigger (if any) protecting rank.
func triggerForRank(d *Deal, rank int, kind trigger.Kind) *trigger.Trigger {
	for _, t := range d.Triggers {
		if t.ProtectedRank == rank && t.Kind == kind {
			return t
		}
	}
	return nil
}

// StandardInterestWaterfall builds the fixed interest-waterfall step
// order (§4.8 normal interest waterfall): every registered fee in
// ledger order, then per tranche (senior to junior) its interest step
// immediately followed by its OC/IC cure step, then the incentive-fee
// gate, then the residual.
func StandardInterestWaterfall(residual *money.Amount) func(d *Deal, p int) waterfall.Sequence {
	return func(d *Deal, p int) waterfall.Sequence {
		var steps []waterfall.Step
		for _, f := range d.FeeLedger.InOrder() {
			steps = append(steps, waterfall.FeeStep(f, p))
		}
		for _, t := range d.Tranches {
			steps = append(steps, waterfall.TrancheInterestStep(t, p))
			if oc := triggerForRank(d, t.Rank, trigger.OC); oc != nil {
				base := d.tranchesAndSeniorBalance(oc.ProtectedRank)
				steps = append(steps, waterfall.TrancheCureStep(oc, d.currentRatio(oc.ID), base))
			}
			if ic := triggerForRank(d, t.Rank, trigger.IC); ic != nil {
				base := d.tranchesAndSeniorInterestDue(ic.ProtectedRank, p)
				steps = append(steps, waterfall.TrancheCureStep(ic, d.currentRatio(ic.ID), base))
			}
		}
		if d.IncentiveFee != nil {
			steps = append(steps, waterfall.IncentiveFeeGateStep(func(gross money.Amount) (money.Amount, money.Amount, error) {
				d.IncentiveFee.PayToSubNoteholders(gross.Float64())
				net, fee := d.IncentiveFee.PayIncentiveFee(p, gross)
				return net, fee, nil
			}))
		}
		steps = append(steps, waterfall.ResidualStep(residual))
		return waterfall.Sequence{Steps: steps}
	}
}

// StandardPrincipalWaterfall builds the fixed principal-waterfall
// step order (§4.8 normal principal waterfall): cures in trigger
// order (senior to junior), then sequential principal by rank, then
// the reinvestment bucket up to maxReinvestment, then the residual.
func StandardPrincipalWaterfall(residual *money.Amount) func(d *Deal, p int, maxReinvestment money.Amount) waterfall.Sequence {
	return func(d *Deal, p int, maxReinvestment money.Amount) waterfall.Sequence {
		var steps []waterfall.Step
		for _, t := range d.Tranches {
			if oc := triggerForRank(d, t.Rank, trigger.OC); oc != nil && oc.Breached {
				base := d.tranchesAndSeniorBalance(oc.ProtectedRank)
				steps = append(steps, waterfall.TrancheCureStep(oc, d.currentRatio(oc.ID), base))
			}
		}
		for _, t := range d.Tranches {
			steps = append(steps, waterfall.TranchePrincipalStep(t))
		}
		inReinvestmentPeriod := d.Policy.InReinvestmentPeriod(d.Schedule[p].PaymentDate) && !d.liquidate
		steps = append(steps, waterfall.ReinvestmentStep(inReinvestmentPeriod, maxReinvestment, func(amt money.Amount) error {
			return d.Reinvestment.AddReinvestment(amt, d.Schedule[p].PaymentDate)
		}))
		steps = append(steps, waterfall.ResidualStep(residual))
		return waterfall.Sequence{Steps: steps}
	}
}

// currentRatio looks up the trigger ratio CalcPeriod snapshotted this
// period, by trigger id.
func (d *Deal) currentRatio(trigID string) float64 {
	return d.lastRatios[trigID]
}

// StandardEODWaterfall builds the EOD waterfall (§4.8): combines both
// proceeds streams and pays strictly by rank, fees first, then each
// tranche's interest and principal in full before moving to the next
// rank, with no reinvestment step.
func StandardEODWaterfall(residual *money.Amount) func(d *Deal, p int) waterfall.Sequence {
	return func(d *Deal, p int) waterfall.Sequence {
		var steps []waterfall.Step
		for _, f := range d.FeeLedger.InOrder() {
			steps = append(steps, waterfall.FeeStep(f, p))
		}
		for _, t := range d.Tranches {
			steps = append(steps, waterfall.TrancheInterestStep(t, p))
			steps = append(steps, waterfall.TranchePrincipalStep(t))
		}
		steps = append(steps, waterfall.ResidualStep(residual))
		return waterfall.Sequence{Steps: steps}
	}
}
