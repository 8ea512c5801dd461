// Package dealengine orchestrates a full deal run: the period driver
// (§4.10), the reinvestment-amount calculation (§4.11), and the
// per-tranche risk measures computed from the realized cash-flow
// stream (§4.12).
package dealengine

import (
	"math"
	"time"

	"github.com/meenmo-clo/engine/errs"
	"github.com/meenmo-clo/engine/incentivefee"
)

// TrancheCashFlow is one realized (paid_amount, paid_date) point used
// by the risk-measure calculations (§4.12).
type TrancheCashFlow struct {
	Date        time.Time
	PaidAmount  float64
	Principal   float64 // the principal component of PaidAmount, for WAL
}

// Yield solves the tranche's XIRR against its realized cash-flow
// stream and an initial purchase price paid on flows[0].Date (§4.12:
// "Yield: XIRR of the vector against the cash paid").
func Yield(price float64, flows []TrancheCashFlow) (float64, error) {
	const op = "dealengine.Yield"
	if len(flows) == 0 {
		return 0, errs.New(errs.Validation, op, "at least one cash flow required")
	}
	xirrFlows := make([]incentivefee.CashFlow, 0, len(flows)+1)
	xirrFlows = append(xirrFlows, incentivefee.CashFlow{Date: flows[0].Date, Amount: -price})
	for _, f := range flows {
		xirrFlows = append(xirrFlows, incentivefee.CashFlow{Date: f.Date, Amount: f.PaidAmount})
	}
	return incentivefee.XIRR(xirrFlows)
}

// DiscountMargin finds DM such that Σ cf_i · Π_j 1/(1+(libor_j+DM)/f)
// = price, via bisection over a bounded range (§4.12). liborAt returns the period-j LIBOR used in the
// discount chain; f is the number of periods per year.
func DiscountMargin(price float64, flows []float64, liborAt func(j int) float64, f float64) (float64, error) {
	const op = "dealengine.DiscountMargin"
	if len(flows) == 0 {
		return 0, errs.New(errs.Validation, op, "at least one cash flow required")
	}

	npv := func(dm float64) float64 {
		total := 0.0
		discountFactor := 1.0
		for j, cf := range flows {
			rate := liborAt(j) + dm
			discountFactor /= 1 + rate/f
			total += cf * discountFactor
		}
		return total
	}

	lo, hi := -0.50, 2.0
	target := price
	for i := 0; i < 200; i++ {
		mid := (lo + hi) / 2
		v := npv(mid)
		if math.Abs(v-target) < 1e-8 {
			return mid, nil
		}
		// npv is monotone decreasing in dm for positive cash flows.
		if v > target {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2, nil
}

// WAL computes the par-weighted average life in years: Σ principal_i
// * t_i / Σ principal_i, t_i the year fraction from analysisDate
// (§4.12).
func WAL(analysisDate time.Time, flows []TrancheCashFlow) float64 {
	weighted, total := 0.0, 0.0
	for _, f := range flows {
		if f.Principal <= 0 {
			continue
		}
		t := f.Date.Sub(analysisDate).Hours() / (24 * 365.25)
		weighted += f.Principal * t
		total += f.Principal
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}

// MacaulayDuration computes Σ t_i · PV_i / Σ PV_i, discounting each
// flow at rate y (§4.12).
func MacaulayDuration(analysisDate time.Time, flows []TrancheCashFlow, y float64, f float64) float64 {
	weighted, total := 0.0, 0.0
	for _, cf := range flows {
		t := cf.Date.Sub(analysisDate).Hours() / (24 * 365.25)
		pv := cf.PaidAmount / math.Pow(1+y/f, t*f)
		weighted += t * pv
		total += pv
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}

// ModifiedDuration converts Macaulay duration to modified duration:
// macaulay / (1 + y/f) (§4.12).
func ModifiedDuration(macaulay, y, f float64) float64 {
	return macaulay / (1 + y/f)
}
