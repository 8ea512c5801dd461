package dealengine

import (
	"github.com/meenmo-clo/engine/money"
)

// TrancheRiskMeasures is one tranche's §4.12 risk-measure bundle,
// computed from the realized period-by-period payment history an
// already-run Deal accumulated in d.Periods.
type TrancheRiskMeasures struct {
	TrancheID        string
	Yield            float64
	DiscountMargin   float64
	WAL              float64
	MacaulayDuration float64
	ModifiedDuration float64
}

// trancheCashFlows builds the tranche's realized (date, paid,
// principal) series from the deal's period audit trail: interest
// payments recorded under "interest:<id>" and principal payments
// under "principal:<id>" for each executed period (§4.12).
func (d *Deal) trancheCashFlows(trancheID string) []TrancheCashFlow {
	var flows []TrancheCashFlow
	for _, period := range d.Periods {
		interestPaid, principalPaid := money.Zero, money.Zero
		for _, sp := range period.InterestPayments {
			if sp.Name == "interest:"+trancheID {
				interestPaid = interestPaid.Add(sp.Paid)
			}
		}
		for _, sp := range period.PrincipalPayments {
			if sp.Name == "principal:"+trancheID {
				principalPaid = principalPaid.Add(sp.Paid)
			}
		}
		total := interestPaid.Add(principalPaid)
		if total.IsZero() {
			continue
		}
		flows = append(flows, TrancheCashFlow{
			Date:       period.PaymentDate,
			PaidAmount: total.Float64(),
			Principal:  principalPaid.Float64(),
		})
	}
	return flows
}

// CalcRiskMeasures computes yield, discount margin, WAL, and
// Macaulay/modified duration for trancheID from its realized
// cash-flow stream, priced at originalBalance * originalPrice
// (fraction of par at closing) and discounted at periodsPerYear
// compounding (§4.10 step 4; §4.12). originalBalance is the tranche's
// balance as of deal closing, supplied by the caller since the
// tranche's current Balance has been paid down by the time a run
// completes.
func (d *Deal) CalcRiskMeasures(trancheID string, originalBalance money.Amount, originalPrice float64, periodsPerYear float64) (TrancheRiskMeasures, error) {
	flows := d.trancheCashFlows(trancheID)
	if len(flows) == 0 {
		return TrancheRiskMeasures{TrancheID: trancheID}, nil
	}

	analysisDate := d.Schedule[1].CollectionBegin
	price := originalBalance.Float64() * originalPrice

	y, err := Yield(price, flows)
	if err != nil {
		return TrancheRiskMeasures{}, err
	}

	liborAt := func(j int) float64 {
		if j+1 < len(d.Periods) {
			return d.Periods[j+1].Libor.Float64()
		}
		return 0
	}
	paidOnly := make([]float64, len(flows))
	for i, f := range flows {
		paidOnly[i] = f.PaidAmount
	}
	dm, err := DiscountMargin(price, paidOnly, liborAt, periodsPerYear)
	if err != nil {
		return TrancheRiskMeasures{}, err
	}

	wal := WAL(analysisDate, flows)
	macaulay := MacaulayDuration(analysisDate, flows, y, periodsPerYear)
	modified := ModifiedDuration(macaulay, y, periodsPerYear)

	return TrancheRiskMeasures{
		TrancheID: trancheID, Yield: y, DiscountMargin: dm,
		WAL: wal, MacaulayDuration: macaulay, ModifiedDuration: modified,
	}, nil
}
