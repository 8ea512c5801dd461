// Package reinvestment implements the reinvestment engine: buying
// synthetic replacement collateral during the reinvestment period and
// accumulating its projected cash flows into the deal's per-period
// arrays alongside the static collateral pool (§3 Reinvestment period;
// §4.4).
package reinvestment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meenmo-clo/engine/asset"
	"github.com/meenmo-clo/engine/calendar"
	"github.com/meenmo-clo/engine/cashflow"
	"github.com/meenmo-clo/engine/curve"
	"github.com/meenmo-clo/engine/errs"
	"github.com/meenmo-clo/engine/money"
)

// Config is the reinvestment period's static parameters (§3).
type Config struct {
	MaturityMonths   int
	ReinvestPrice    float64 // (0,1]
	Spread           money.Rate
	Floor            money.Rate
	LiquidationPrice float64 // [0,1]
	LagPeriods       int
	PrepayCurve      asset.AnnualRateCurve
	DefaultCurve     asset.AnnualRateCurve
	SeverityCurve    asset.AnnualRateCurve
	MonthlyCurve     *curve.Curve
	MonthsPerPeriod  int
	CalendarCtx      calendar.Context
	DayCount         calendar.Convention
	BusinessDayConvention calendar.BusinessDayConvention
}

// lot is one synthetic obligation bought by add_reinvestment, whose
// strip is offset into the engine's aggregate arrays starting the
// period after it was purchased.
type lot struct {
	obligation  *asset.Obligation
	strip       *cashflow.Strip
	startPeriod int
}

// Engine owns the aggregate per-period strip multiple reinvestment
// lots sum into, plus the set of active lots needed to support
// liquidate/get_proceeds (§4.4).
type Engine struct {
	cfg     Config
	horizon int
	period  int // current period, 1-indexed

	aggregate *cashflow.Strip
	lots      []*lot
}

// New builds an Engine spanning horizon deal periods, starting at
// period 1.
func New(cfg Config, horizon int) *Engine {
	return &Engine{cfg: cfg, horizon: horizon, period: 1, aggregate: cashflow.New(horizon)}
}

// AddReinvestment buys par amount/reinvest_price of a synthetic
// floating-rate obligation and folds its projected strip into the
// engine's aggregate arrays starting the period after the current one
// (§4.4).
func (e *Engine) AddReinvestment(amount money.Amount, analysisDate time.Time) error {
	const op = "reinvestment.AddReinvestment"
	if e.cfg.ReinvestPrice <= 0 {
		return errs.New(errs.Validation, op, "reinvest_price must be > 0")
	}

	par := amount.Div(decimal.NewFromFloat(e.cfg.ReinvestPrice))

	maturity := analysisDate.AddDate(0, e.cfg.MaturityMonths, 0)
	synthetic := &asset.Obligation{
		ID:        "REINV-" + uuid.NewString(),
		ParAmount: par,
		Kind:      asset.Loan,
		Seniority: asset.SeniorSecured,
		DatedDate: analysisDate,
		FirstPaymentDate: analysisDate.AddDate(0, e.cfg.MonthsPerPeriod, 0),
		MaturityDate: maturity,
		PaymentFrequencyPerYear: 12 / e.cfg.MonthsPerPeriod,
		DayCount: e.cfg.DayCount,
		BusinessDayConvention: e.cfg.BusinessDayConvention,
		Rate: asset.RateSpec{Float: &asset.FloatRate{
			IndexName: e.cfg.MonthlyCurve.Name(),
			Spread:    e.cfg.Spread,
			Floor:     e.cfg.Floor,
		}},
		Amortization: asset.AmortizationSpec{Bullet: &struct{}{}},
	}

	strip, err := asset.Generate(synthetic, asset.GenerationInput{
		CalendarCtx:        e.cfg.CalendarCtx,
		PrepayCurve:        e.cfg.PrepayCurve,
		DefaultCurve:       e.cfg.DefaultCurve,
		SeverityCurve:      e.cfg.SeverityCurve,
		RecoveryLagPeriods: e.cfg.LagPeriods,
		IndexCurve:         e.cfg.MonthlyCurve,
		MonthsPerPeriod:    e.cfg.MonthsPerPeriod,
	})
	if err != nil {
		return err
	}

	e.lots = append(e.lots, &lot{obligation: synthetic, strip: strip, startPeriod: e.period})
	e.foldIn(strip, e.period)
	return nil
}

// foldIn accumulates lot's strip (1-indexed, relative to its own
// purchase period) into the aggregate arrays offset by startPeriod,
// truncating at the deal horizon or when the lot's end balance has
// already hit zero (§4.4: "terminate early if end_balance = 0 or past
// the deal horizon").
func (e *Engine) foldIn(strip *cashflow.Strip, startPeriod int) {
	for lp := 1; lp <= strip.Periods(); lp++ {
		p := startPeriod + lp
		if p > e.horizon {
			break
		}
		e.aggregate.Interest[p] = e.aggregate.Interest[p].Add(strip.Interest[lp])
		e.aggregate.SchedPrincipal[p] = e.aggregate.SchedPrincipal[p].Add(strip.SchedPrincipal[lp])
		e.aggregate.UnschedPrincipal[p] = e.aggregate.UnschedPrincipal[p].Add(strip.UnschedPrincipal[lp])
		e.aggregate.Recoveries[p] = e.aggregate.Recoveries[p].Add(strip.Recoveries[lp])
		e.aggregate.NetLoss[p] = e.aggregate.NetLoss[p].Add(strip.NetLoss[lp])
		e.aggregate.EndBalance[p] = e.aggregate.EndBalance[p].Add(strip.EndBalance[lp])
		e.aggregate.DefaultBalance[p] = e.aggregate.DefaultBalance[p].Add(strip.DefaultBalance[lp])
		e.aggregate.MVDefaultBalance[p] = e.aggregate.MVDefaultBalance[p].Add(strip.MVDefaultBalance[lp])

		if strip.EndBalance[lp].IsZero() && lp < strip.Periods() {
			break
		}
	}
}

// Liquidate sells the engine's current aggregate position at price
// (§4.4 liquidate(price)), zeroing all future periods.
func (e *Engine) Liquidate(price float64) (sold money.Amount, loss money.Amount) {
	return e.aggregate.Liquidate(e.period, price)
}

// GetProceeds returns the aggregate INTEREST or PRINCIPAL proceeds for
// the current period (§4.4 get_proceeds).
func (e *Engine) GetProceeds(kind string) money.Amount {
	switch kind {
	case "INTEREST":
		return e.aggregate.InterestProceeds(e.period)
	case "PRINCIPAL":
		return e.aggregate.PrincipalProceeds(e.period)
	default:
		return money.Zero
	}
}

// RollForward advances the engine to the next period (§4.4).
func (e *Engine) RollForward() {
	if e.period < e.horizon {
		e.period++
	}
}

// Period returns the engine's current period.
func (e *Engine) Period() int { return e.period }
