package dealengine

import (
	"time"

	"github.com/meenmo-clo/engine/calendar"
	"github.com/meenmo-clo/engine/cashflow"
	"github.com/meenmo-clo/engine/curve"
	"github.com/meenmo-clo/engine/errs"
	"github.com/meenmo-clo/engine/fees"
	"github.com/meenmo-clo/engine/incentivefee"
	"github.com/meenmo-clo/engine/liability"
	"github.com/meenmo-clo/engine/money"
	"github.com/meenmo-clo/engine/pool"
	"github.com/meenmo-clo/engine/rating"
	"github.com/meenmo-clo/engine/reinvestment"
	"github.com/meenmo-clo/engine/trigger"
	"github.com/meenmo-clo/engine/waterfall"
)

// PaymentDate is one entry of the deal's adjusted payment schedule
// (§4.10 step 1: CalcPaymentDates).
type PaymentDate struct {
	PaymentDate             time.Time
	CollectionBegin         time.Time
	CollectionEnd           time.Time
	InterestDeterminationDate time.Time
}

// CalcPaymentDates builds the adjusted schedule stepping by
// monthsBetweenPayments from firstPaymentDate until maturityDate,
// with each entry's interest-determination date offset back from the
// payment date by determinationOffsetDays (§4.10 step 1). Index 0 is
// unused so periods are addressed 1..N like every other per-period
// array in this engine.
func CalcPaymentDates(ctx calendar.Context, firstPaymentDate, maturityDate time.Time, monthsBetweenPayments int, convention calendar.BusinessDayConvention, determinationOffsetDays int) []PaymentDate {
	spec := calendar.ScheduleSpec{
		FirstPaymentDate: firstPaymentDate,
		MaturityDate:     maturityDate,
		FrequencyPerYear: 12 / monthsBetweenPayments,
		Convention:       convention,
	}
	schedule := ctx.BuildSchedule(spec)

	out := make([]PaymentDate, len(schedule)+1)
	for i, period := range schedule {
		out[i+1] = PaymentDate{
			PaymentDate:               period.PaymentDate,
			CollectionBegin:           period.AccrualBegin,
			CollectionEnd:             period.AccrualEnd,
			InterestDeterminationDate: period.PaymentDate.AddDate(0, 0, -determinationOffsetDays),
		}
	}
	return out
}

// CLOInputs is the minimal external input map §6 names: the period-1
// LIBOR override, the event-of-default flag, purchase-finance accrued
// interest folded into the first period's interest collections, and
// the sub-note call threshold.
type CLOInputs struct {
	CurrentLibor                    money.Rate
	EventOfDefault                  bool
	PurchaseFinanceAccruedInterest  money.Amount
	CallWhenQuarterlySubDistBelow   money.Amount
}

// Deal bundles every component a period-by-period run coordinates,
// wired by id/rank rather than back-pointers (§3; §4.10).
type Deal struct {
	CalendarCtx  calendar.Context
	DayCount     calendar.Convention
	Schedule     []PaymentDate // 1-indexed, len N+1
	Horizon      int
	NoCallDate   time.Time
	ReinvestmentEndDate time.Time
	MaturityDate time.Time

	Pool         *pool.Pool
	Strips       map[string]*cashflow.Strip // per held obligation id, projected strip
	Tranches     []*liability.Tranche       // ordered senior (rank 0) to junior
	Triggers     []*trigger.Trigger
	FeeLedger    *fees.Ledger
	Reinvestment *reinvestment.Engine
	IncentiveFee *incentivefee.State
	LiborCurve   *curve.Curve

	Inputs   CLOInputs
	Policy   ReinvestmentPolicy
	EODTriggerID string // the OC test id that, if breached, forces the EOD waterfall (§4.10 Open Question, resolved as configuration)
	CCCHaircutRate float64 // applied to par held at CCC-or-below in the OC numerator (§4.7)

	// BuildInterestWaterfall/BuildPrincipalWaterfall/BuildEODWaterfall
	// construct this period's ordered steps from the deal's own
	// tranches/fees/triggers (§4.8's step list is deal-specific: the
	// number of tranches and fees varies by deal).
	BuildInterestWaterfall  func(d *Deal, p int) waterfall.Sequence
	BuildPrincipalWaterfall func(d *Deal, p int, maxReinvestment money.Amount) waterfall.Sequence
	BuildEODWaterfall       func(d *Deal, p int) waterfall.Sequence

	period     int
	liquidate  bool
	lastRatios map[string]float64

	Periods []PeriodResult
}

// PeriodResult is the audit trail for one executed period (§4.10).
type PeriodResult struct {
	Period                int
	PaymentDate           time.Time
	Libor                 money.Rate
	InterestCollected     money.Amount
	PrincipalCollected    money.Amount
	EOD                   bool
	InterestPayments      []waterfall.StepPayment
	PrincipalPayments      []waterfall.StepPayment
	MaxReinvestment       money.Amount
	TriggerRatios         map[string]float64
	LiquidateNextPeriod   bool
}

// New builds a Deal starting at period 1.
func New(d Deal) *Deal {
	d.period = 1
	return &d
}

// Period returns the engine's current period.
func (d *Deal) Period() int { return d.period }

// DealSetup moves RAMP_UP principal cash to COLLECTION ahead of the
// first period (§4.10 step 2).
func (d *Deal) DealSetup() {
	d.Pool.Accounts.MovePrincipalOnly(pool.RampUp, pool.Collection)
}

// performingParAndHaircut sums the pool's performing (non-defaulted)
// par, the mark-to-market value of defaulted positions, and the CCC
// haircut applied to the OC numerator: CCCHaircutRate times the par
// held in obligations rated Caa1 or worse (§4.7).
func (d *Deal) performingParAndHaircut(p int) (performingPar, mvDefaulted, cccHaircut money.Amount) {
	for _, pos := range d.Pool.Positions() {
		strip := d.Strips[pos.Obligation.ID]
		if strip == nil || p >= len(strip.EndBalance) {
			performingPar = performingPar.Add(pos.ParHeld)
			continue
		}
		performing := money.MaxZero(strip.EndBalance[p].Sub(strip.DefaultBalance[p]))
		performingPar = performingPar.Add(performing)
		mvDefaulted = mvDefaulted.Add(strip.MVDefaultBalance[p])

		if rating.IsCCCOrBelow(pos.Obligation.MoodyRating) {
			cccHaircut = cccHaircut.Add(pos.ParHeld.Mul(decimalOf(d.CCCHaircutRate)))
		}
	}
	return performingPar, mvDefaulted, cccHaircut
}

// tranchesAndSeniorBalance sums the balance of rank and every more
// senior tranche, the OC ratio's denominator for the trigger
// protecting rank (§4.7).
func (d *Deal) tranchesAndSeniorBalance(rank int) money.Amount {
	total := money.Zero
	for _, t := range d.Tranches {
		if t.Rank <= rank {
			total = total.Add(t.Balance)
		}
	}
	return total
}

// tranchesAndSeniorInterestDue sums period p's interest due across
// rank and every more senior tranche, the IC ratio's denominator.
func (d *Deal) tranchesAndSeniorInterestDue(rank, p int) money.Amount {
	total := money.Zero
	for _, t := range d.Tranches {
		if t.Rank <= rank && p < len(t.InterestDue) {
			total = total.Add(t.InterestDue[p])
		}
	}
	return total
}

// CalcPeriod aggregates the period's collections and fee/trigger
// inputs (§4.10 step a): LIBOR for this period (the supplied override
// on period 1, the curve's zero rate at interest_determination_date
// thereafter), asset and reinvestment interest/principal proceeds
// credited into COLLECTION, and the OC/IC ratio inputs snapshot.
func (d *Deal) CalcPeriod() (PeriodResult, error) {
	const op = "dealengine.CalcPeriod"
	p := d.period
	if p >= len(d.Schedule) {
		return PeriodResult{}, errs.New(errs.Validation, op, "period beyond schedule")
	}
	pay := d.Schedule[p]

	var libor money.Rate
	if p == 1 {
		libor = d.Inputs.CurrentLibor
	} else if d.LiborCurve != nil {
		z, err := d.LiborCurve.ZeroRate(pay.InterestDeterminationDate, pay.PaymentDate)
		if err != nil {
			return PeriodResult{}, err
		}
		libor = money.NewRate(z)
	}

	interestCollected, principalCollected := money.Zero, money.Zero
	for _, pos := range d.Pool.Positions() {
		strip := d.Strips[pos.Obligation.ID]
		if strip == nil || p >= len(strip.Interest) {
			continue
		}
		interestCollected = interestCollected.Add(strip.InterestProceeds(p))
		principalCollected = principalCollected.Add(strip.PrincipalProceeds(p))
	}
	interestCollected = interestCollected.Add(d.Reinvestment.GetProceeds("INTEREST"))
	principalCollected = principalCollected.Add(d.Reinvestment.GetProceeds("PRINCIPAL"))
	if p == 1 {
		interestCollected = interestCollected.Add(d.Inputs.PurchaseFinanceAccruedInterest)
	}
	d.Pool.Accounts.Credit(pool.Collection, interestCollected, principalCollected)

	for _, t := range d.Tranches {
		t.ResetRate(libor)
		yf := calendar.YearFraction(pay.CollectionBegin, pay.CollectionEnd, d.DayCount)
		if _, err := t.AccrueInterest(p, yf, t.Balance); err != nil {
			return PeriodResult{}, err
		}
	}

	if d.IncentiveFee != nil {
		d.IncentiveFee.Calc(p, pay.PaymentDate)
	}

	performingPar, mvDefaulted, cccHaircut := d.performingParAndHaircut(p)
	ratios := make(map[string]float64, len(d.Triggers))
	for _, trig := range d.Triggers {
		switch trig.Kind {
		case trigger.OC:
			base := d.tranchesAndSeniorBalance(trig.ProtectedRank)
			ratio := trigger.OCRatio(performingPar, d.Pool.Accounts[pool.Collection].Principal, mvDefaulted, cccHaircut, base)
			trig.Evaluate(ratio)
			ratios[trig.ID] = ratio
		case trigger.IC:
			base := d.tranchesAndSeniorInterestDue(trig.ProtectedRank, p)
			ratio := trigger.ICRatio(interestCollected, base)
			trig.Evaluate(ratio)
			ratios[trig.ID] = ratio
		}
	}

	d.lastRatios = ratios

	return PeriodResult{
		Period: p, PaymentDate: pay.PaymentDate, Libor: libor,
		InterestCollected: interestCollected, PrincipalCollected: principalCollected,
		TriggerRatios: ratios,
	}, nil
}

// eodBreached reports whether the configured EOD-qualifying trigger
// is breached this period, or the external event-of-default flag is
// set (§4.10 step b; §4 glossary "EOD"; Open Question resolved as
// configuration via Deal.EODTriggerID).
func (d *Deal) eodBreached() bool {
	if d.Inputs.EventOfDefault {
		return true
	}
	for _, trig := range d.Triggers {
		if trig.ID == d.EODTriggerID {
			return trig.Breached
		}
	}
	return false
}

// RunPeriod executes one full period: CalcPeriod, the EOD/normal
// waterfall branch, the liquidation-trigger test, and roll-forward
// (§4.10 step 3 a-d).
func (d *Deal) RunPeriod() (PeriodResult, error) {
	result, err := d.CalcPeriod()
	if err != nil {
		return result, err
	}
	p := d.period

	if d.eodBreached() {
		result.EOD = true
		seq := d.BuildEODWaterfall(d, p)
		available := d.Pool.Accounts[pool.Collection].Interest.Add(d.Pool.Accounts[pool.Collection].Principal)
		payments, _, err := seq.Run(available)
		if err != nil {
			return result, err
		}
		result.InterestPayments = payments
	} else {
		interestSeq := d.BuildInterestWaterfall(d, p)
		interestAvailable := d.Pool.Accounts[pool.Collection].Interest
		interestPayments, _, err := interestSeq.Run(interestAvailable)
		if err != nil {
			return result, err
		}
		result.InterestPayments = interestPayments

		maxReinvestment := ReinvestmentAmount(d.Policy, result.PaymentDate, d.liquidate,
			result.PrincipalCollected, d.unscheduledPrincipalTotal(p), d.Pool.Accounts[pool.Collection].Principal)
		result.MaxReinvestment = maxReinvestment

		principalSeq := d.BuildPrincipalWaterfall(d, p, maxReinvestment)
		principalAvailable := d.Pool.Accounts[pool.Collection].Principal
		principalPayments, _, err := principalSeq.Run(principalAvailable)
		if err != nil {
			return result, err
		}
		result.PrincipalPayments = principalPayments
	}

	result.LiquidateNextPeriod = d.checkLiquidationTrigger(p, result)
	if err := d.rollForward(p); err != nil {
		return result, err
	}

	d.Periods = append(d.Periods, result)
	return result, nil
}

// unscheduledPrincipalTotal sums period p's prepayment+recovery
// (unscheduled) principal across the pool's positions, the
// UNSCHEDULED_PRINCIPAL reinvestment basis (§4.11). Reinvestment lots
// held by the reinvestment engine are not included.
func (d *Deal) unscheduledPrincipalTotal(p int) money.Amount {
	total := money.Zero
	for _, pos := range d.Pool.Positions() {
		strip := d.Strips[pos.Obligation.ID]
		if strip == nil || p >= len(strip.UnschedPrincipal) {
			continue
		}
		total = total.Add(strip.UnschedPrincipal[p]).Add(strip.Recoveries[p])
	}
	return total
}

// checkLiquidationTrigger sets the liquidate flag for the next period
// if the sub-note quarterly distribution falls below the call
// threshold after the no-call date, or this is the second-to-last
// period (§4.10 step c).
func (d *Deal) checkLiquidationTrigger(p int, result PeriodResult) bool {
	if p == d.Horizon-1 {
		d.liquidate = true
		return true
	}
	if result.PaymentDate.After(d.NoCallDate) {
		residual := money.Zero
		for _, sp := range result.InterestPayments {
			if sp.Name == "residual" {
				residual = sp.Paid
			}
		}
		if residual.LessThan(d.Inputs.CallWhenQuarterlySubDistBelow) {
			d.liquidate = true
			return true
		}
	}
	return d.liquidate
}

// rollForward advances every stateful component to the next period
// and clears per-period trigger cure state (§4.10 step d).
func (d *Deal) rollForward(p int) error {
	for _, trig := range d.Triggers {
		trig.ResetPeriod()
	}
	d.Reinvestment.RollForward()
	if d.IncentiveFee != nil {
		if _, err := d.IncentiveFee.RollForward(d.Schedule[p].PaymentDate); err != nil {
			return err
		}
	}
	d.period++
	return nil
}

// Liquidate reports whether the engine has entered its final
// liquidation period.
func (d *Deal) Liquidate() bool { return d.liquidate }
