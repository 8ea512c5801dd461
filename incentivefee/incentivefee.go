// Package incentivefee implements the manager's IRR-hurdle incentive
// fee on sub-note distributions (§3 Incentive-fee state; §4.9).
package incentivefee

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meenmo-clo/engine/money"
)

// CashFlow is one dated cash flow used by both the closing-date
// discounting and the XIRR solve.
type CashFlow struct {
	Date   time.Time
	Amount float64
}

// State is the incentive-fee component's persistent state (§3):
// hurdle and fee rate are fixed at Setup; the rest evolves per period.
type State struct {
	Hurdle     float64
	FeeRate    float64
	ClosingDate time.Time

	cumDiscounted    float64
	thresholdReached bool
	currentSubPayments float64
	currentThreshold   float64

	period int
	xirrCashFlows []CashFlow

	// Per-period arrays, 1-indexed.
	Threshold []float64
	FeePaid   []money.Amount
	IRR       []float64
}

// New builds a State from the fixed hurdle/fee parameters, allocating
// n periods of output arrays.
func New(hurdle, feeRate float64, closingDate time.Time, n int) *State {
	return &State{
		Hurdle: hurdle, FeeRate: feeRate, ClosingDate: closingDate, period: 1,
		Threshold: make([]float64, n+1),
		FeePaid:   make([]money.Amount, n+1),
		IRR:       make([]float64, n+1),
	}
}

// DealSetup discards historical sub-payments after analysisDate and
// computes cum_discounted = Σ payment_i / (1+hurdle)^((date_i −
// closing)/365); if the result is positive the IRR hurdle is already
// cleared from historical payments alone (§4.9).
func (s *State) DealSetup(historicalPayments []CashFlow, analysisDate time.Time) {
	s.cumDiscounted = 0
	for _, cf := range historicalPayments {
		if cf.Date.After(analysisDate) {
			continue
		}
		years := cf.Date.Sub(s.ClosingDate).Hours() / (24 * 365)
		s.cumDiscounted += cf.Amount / math.Pow(1+s.Hurdle, years)
		s.xirrCashFlows = append(s.xirrCashFlows, cf)
	}
	if s.cumDiscounted > 0 {
		s.thresholdReached = true
	}
}

// Calc computes the current period's threshold: zero once the hurdle
// has been cleared, otherwise the additional sub-payment required to
// bring the discounted cumulative to zero at nextPay (§4.9).
func (s *State) Calc(p int, nextPay time.Time) float64 {
	if s.thresholdReached {
		s.currentThreshold = 0
	} else {
		years := nextPay.Sub(s.ClosingDate).Hours() / (24 * 365)
		s.currentThreshold = -s.cumDiscounted * math.Pow(1+s.Hurdle, years)
	}
	if p >= 0 && p < len(s.Threshold) {
		s.Threshold[p] = s.currentThreshold
	}
	return s.currentThreshold
}

// PayToSubNoteholders records a sub-note distribution against the
// current period's threshold, latching ThresholdReached once met.
// thresholdReached is monotone: it is never reset once true (§7).
func (s *State) PayToSubNoteholders(amount float64) {
	s.currentSubPayments += amount
	if s.currentSubPayments >= s.currentThreshold {
		s.thresholdReached = true
	}
}

// PayIncentiveFee pays fee_rate * gross to the manager once the
// threshold is reached, returning gross unchanged until then (§4.9).
func (s *State) PayIncentiveFee(p int, gross money.Amount) (netToSubNoteholders money.Amount, feePaid money.Amount) {
	if !s.thresholdReached {
		return gross, money.Zero
	}
	fee := gross.Mul(decimal.NewFromFloat(s.FeeRate))
	if p >= 0 && p < len(s.FeePaid) {
		s.FeePaid[p] = fee
	}
	return gross.Sub(fee), fee
}

// RollForward folds the period's sub-note payment into cum_discounted,
// appends it to the XIRR cash-flow series, solves the series' IRR,
// advances the period, and resets the per-period accumulators (§4.9).
func (s *State) RollForward(nextPay time.Time) (float64, error) {
	years := nextPay.Sub(s.ClosingDate).Hours() / (24 * 365)
	s.cumDiscounted += s.currentSubPayments / math.Pow(1+s.Hurdle, years)
	s.xirrCashFlows = append(s.xirrCashFlows, CashFlow{Date: nextPay, Amount: s.currentSubPayments})

	irr, err := XIRR(s.xirrCashFlows)
	if err != nil {
		return 0, err
	}
	if s.period >= 0 && s.period < len(s.IRR) {
		s.IRR[s.period] = irr
	}

	s.period++
	s.currentSubPayments = 0
	s.currentThreshold = 0
	return irr, nil
}

// ThresholdReached reports the monotone IRR-hurdle-cleared flag.
func (s *State) ThresholdReached() bool { return s.thresholdReached }
