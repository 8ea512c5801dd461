package asset

import (
	"time"

	"github.com/meenmo-clo/engine/calendar"
	"github.com/meenmo-clo/engine/cashflow"
	"github.com/meenmo-clo/engine/curve"
	"github.com/meenmo-clo/engine/errs"
	"github.com/meenmo-clo/engine/money"
)

// GenerationInput bundles the curves and context needed to project an
// obligation's cash-flow strip (§4.3).
type GenerationInput struct {
	CalendarCtx   calendar.Context
	PrepayCurve   AnnualRateCurve
	DefaultCurve  AnnualRateCurve
	SeverityCurve AnnualRateCurve
	RecoveryLagPeriods int
	IndexCurve    *curve.Curve // required if the obligation is FLOAT
	MonthsPerPeriod int
}

// Generate projects the per-period strip for o from o.FirstPaymentDate
// through o.MaturityDate (§4.3). It implements the five-step
// recurrence: defaults, coupon/PIK, scheduled principal, unscheduled
// principal, lagged recoveries.
func Generate(o *Obligation, in GenerationInput) (*cashflow.Strip, error) {
	const op = "asset.Generate"
	if err := o.Validate(); err != nil {
		return nil, err
	}

	schedule := in.CalendarCtx.BuildSchedule(calendar.ScheduleSpec{
		FirstPaymentDate: o.FirstPaymentDate,
		MaturityDate:     o.MaturityDate,
		FrequencyPerYear: o.PaymentFrequencyPerYear,
		Convention:       o.BusinessDayConvention,
		EndOfMonth:       o.EndOfMonth,
	})
	n := len(schedule)
	if n == 0 {
		return nil, errs.New(errs.Validation, op, "empty payment schedule")
	}

	strip := cashflow.New(n)
	piking := o.Flags.PIKEligible

	begBalance := o.ParAmount
	defaultBalance := money.Zero
	mvDefaultBalance := money.Zero

	for idx, per := range schedule {
		p := idx + 1
		strip.PaymentDate[p] = per.PaymentDate
		strip.AccrualBegin[p] = per.AccrualBegin
		strip.AccrualEnd[p] = per.AccrualEnd
		strip.BegBalance[p] = begBalance

		yf := calendar.YearFraction(per.AccrualBegin, per.AccrualEnd, o.DayCount)

		var defaultAmt, mvDefault money.Amount
		if o.Flags.DefaultAsset {
			// entry-state default: skip steps 1-2, only produce
			// recoveries over the lag window.
			defaultAmt = money.Zero
			mvDefault = money.Zero
		} else {
			defaultRate := PeriodRate(in.DefaultCurve.At(p), yf)
			defaultAmt = begBalance.Mul(decimalOf(defaultRate))
			severity := in.SeverityCurve.At(p)
			mvDefault = defaultAmt.Mul(decimalOf(1 - severity))
		}
		strip.Default[p] = defaultAmt
		strip.MVDefault[p] = mvDefault

		// step 2: coupon / PIK
		couponRate, err := currentCoupon(o, in, per.AccrualBegin)
		if err != nil {
			return nil, err
		}
		accrualBasis := begBalance.Sub(defaultAmt)
		interest := accrualBasis.Mul(decimalOf(yf)).MulRate(couponRate)

		if piking {
			begBalance = begBalance.Add(interest)
			strip.BegBalance[p] = begBalance
			interest = money.Zero
		}
		strip.Interest[p] = interest

		// step 3: scheduled principal (bullet unless the final
		// period, or the obligation uses an amortizing schedule)
		isFinal := idx == n-1
		var schedPrincipal money.Amount
		switch {
		case o.Amortization.Amortizing != nil:
			schedPrincipal = amortizingSchedPrincipal(begBalance.Sub(defaultAmt), n-idx, isFinal)
		case isFinal:
			schedPrincipal = begBalance.Sub(defaultAmt)
		default:
			schedPrincipal = money.Zero
		}
		strip.SchedPrincipal[p] = schedPrincipal

		// step 4: unscheduled principal (prepayment)
		prepayRate := PeriodRate(in.PrepayCurve.At(p), yf)
		remaining := begBalance.Sub(defaultAmt).Sub(schedPrincipal)
		unsched := remaining.Mul(decimalOf(prepayRate))
		strip.UnschedPrincipal[p] = unsched

		// step 5: lagged recoveries
		lag := in.RecoveryLagPeriods
		var recoveries, netLoss money.Amount
		if p > lag {
			recoveries = strip.MVDefault[p-lag]
			netLoss = strip.Default[p-lag].Sub(strip.MVDefault[p-lag])
		}
		strip.Recoveries[p] = recoveries
		strip.NetLoss[p] = netLoss
		defaultBalance = defaultBalance.Add(defaultAmt).Sub(recoveries).Sub(netLoss)
		strip.DefaultBalance[p] = defaultBalance
		mvDefaultBalance = mvDefaultBalance.Add(mvDefault).Sub(recoveries)
		strip.MVDefaultBalance[p] = mvDefaultBalance

		// step 6: roll forward
		endBalance := begBalance.Sub(defaultAmt).Sub(schedPrincipal).Sub(unsched)
		strip.EndBalance[p] = endBalance
		begBalance = endBalance

		// step 7: final period liquidates remaining default balance
		// into net loss.
		if isFinal && defaultBalance.IsPositive() {
			strip.NetLoss[p] = strip.NetLoss[p].Add(defaultBalance)
			strip.DefaultBalance[p] = money.Zero
			strip.MVDefaultBalance[p] = money.Zero
		}
	}

	return strip, nil
}

// currentCoupon returns the coupon rate applicable for the period
// beginning at accrualBegin: the fixed rate, or
// max(index+spread, floor+spread) for FLOAT (§4.3 step 2).
func currentCoupon(o *Obligation, in GenerationInput, accrualBegin time.Time) (money.Rate, error) {
	const op = "asset.currentCoupon"
	if o.Rate.Fixed != nil {
		return o.Rate.Fixed.Coupon, nil
	}
	if o.Rate.Float == nil {
		return money.ZeroRate, errs.New(errs.Validation, op, "obligation has neither fixed nor float rate spec")
	}
	if in.IndexCurve == nil {
		return money.ZeroRate, errs.New(errs.Validation, op, "float-rate obligation requires an index curve")
	}

	idx, err := in.IndexCurve.SpotRate(accrualBegin, in.MonthsPerPeriod)
	if err != nil {
		return money.ZeroRate, errs.Wrap(errs.Numerical, op, "index lookup failed", err)
	}

	index := money.NewRate(idx)
	withSpread := index.Add(o.Rate.Float.Spread)
	floored := o.Rate.Float.Floor.Add(o.Rate.Float.Spread)
	coupon := money.MaxRate(withSpread, floored)
	if o.Rate.Float.Cap != nil {
		cap := o.Rate.Float.Cap.Add(o.Rate.Float.Spread)
		if coupon.GreaterThan(cap) {
			coupon = cap
		}
	}
	return coupon, nil
}
