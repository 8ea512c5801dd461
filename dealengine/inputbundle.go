package dealengine

import (
	"fmt"
	"time"

	"github.com/meenmo-clo/engine/asset"
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
)

// dateLayout is the wire format for every date field in an
// InputBundle: plain calendar dates, no time-of-day or zone, matching
// how the original source's Excel-ingestion collaborator (out of
// scope per spec.md §1) hands dates to the core.
const dateLayout = "2006-01-02"

// AssetInput is the JSON-friendly form of an Obligation (§3), using
// bare strings/floats in place of this engine's decimal and tagged-
// variant types per the Design Notes' "dynamic-typed property bags ->
// strongly-typed configuration structs" re-architecture: the input
// bundle is the closed, validated vocabulary the persistence/ingestion
// collaborators (out of scope) are expected to produce.
type AssetInput struct {
	ID        string `json:"id"`
	IssuerID  string `json:"issuer_id"`
	IssueName string `json:"issue_name"`

	Kind      string `json:"kind"`      // BOND | LOAN
	Seniority string `json:"seniority"` // SENIOR_SECURED | SENIOR_UNSECURED | SUBORDINATE

	ParAmount float64 `json:"par_amount"`

	DatedDate               string `json:"dated_date"`
	FirstPaymentDate        string `json:"first_payment_date"`
	MaturityDate            string `json:"maturity_date"`
	PaymentFrequencyPerYear int    `json:"payment_frequency_per_year"`
	DayCount                string `json:"day_count"`
	BusinessDayConvention   string `json:"business_day_convention"`

	CouponType string  `json:"coupon_type"` // FIXED | FLOAT
	Coupon     float64 `json:"coupon,omitempty"`
	IndexName  string  `json:"index_name,omitempty"`
	Spread     float64 `json:"spread,omitempty"`
	Floor      float64 `json:"floor,omitempty"`

	Amortizing bool `json:"amortizing,omitempty"`

	MoodyRating string `json:"moodys_rating,omitempty"`
	SPRating    string `json:"sp_rating,omitempty"`
}

// toObligation converts the wire form to the engine's internal
// Obligation, validating the §3 invariants before returning.
func (a AssetInput) toObligation() (*asset.Obligation, error) {
	dated, err := time.Parse(dateLayout, a.DatedDate)
	if err != nil {
		return nil, fmt.Errorf("asset %s: dated_date: %w", a.ID, err)
	}
	first, err := time.Parse(dateLayout, a.FirstPaymentDate)
	if err != nil {
		return nil, fmt.Errorf("asset %s: first_payment_date: %w", a.ID, err)
	}
	maturity, err := time.Parse(dateLayout, a.MaturityDate)
	if err != nil {
		return nil, fmt.Errorf("asset %s: maturity_date: %w", a.ID, err)
	}

	o := &asset.Obligation{
		ID: a.ID, IssuerID: a.IssuerID, IssueName: a.IssueName,
		Kind:      asset.Kind(a.Kind),
		Seniority: asset.Seniority(a.Seniority),
		ParAmount: money.NewAmount(a.ParAmount),

		DatedDate:               dated,
		FirstPaymentDate:        first,
		MaturityDate:            maturity,
		PaymentFrequencyPerYear: a.PaymentFrequencyPerYear,
		DayCount:                calendar.Convention(a.DayCount),
		BusinessDayConvention:   calendar.BusinessDayConvention(a.BusinessDayConvention),

		MoodyRating: rating.MoodyRating(a.MoodyRating),
		SPRating:    rating.SPRating(a.SPRating),
	}

	switch a.CouponType {
	case "FLOAT":
		o.Rate = asset.RateSpec{Float: &asset.FloatRate{
			IndexName: a.IndexName,
			Spread:    money.NewRate(a.Spread),
			Floor:     money.NewRate(a.Floor),
		}}
	default:
		o.Rate = asset.RateSpec{Fixed: &asset.FixedRate{Coupon: money.NewRate(a.Coupon)}}
	}

	if a.Amortizing {
		o.Amortization = asset.AmortizationSpec{Amortizing: &asset.AmortizingSchedule{NominalRate: money.NewRate(a.Coupon)}}
	} else {
		o.Amortization = asset.AmortizationSpec{Bullet: &struct{}{}}
	}

	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// TrancheInput is the JSON-friendly form of a Tranche (§3).
type TrancheInput struct {
	ID          string  `json:"id"`
	Rank        int     `json:"rank"`
	Balance     float64 `json:"balance"`
	CouponType  string  `json:"coupon_type"` // FIXED | FLOAT
	FixedRate   float64 `json:"fixed_rate,omitempty"`
	Spread      float64 `json:"spread,omitempty"`
	Floor       float64 `json:"floor,omitempty"`
	PIKEligible bool    `json:"pik_eligible"`
	// OriginalPrice is the tranche's price at closing as a fraction of
	// par (e.g. 1.0 = par), the price §4.12's risk measures are priced
	// against. Defaults to 1.0 (par) when omitted.
	OriginalPrice float64 `json:"original_price,omitempty"`
}

func (t TrancheInput) toTranche(n int) *liability.Tranche {
	var coupon liability.CouponSpec
	if t.CouponType == "FLOAT" {
		coupon = liability.CouponSpec{Float: &liability.FloatCoupon{
			Spread: money.NewRate(t.Spread), Floor: money.NewRate(t.Floor),
		}}
	} else {
		coupon = liability.CouponSpec{Fixed: &liability.FixedCoupon{Rate: money.NewRate(t.FixedRate)}}
	}
	return liability.New(t.ID, t.Rank, money.NewAmount(t.Balance), coupon, t.PIKEligible, n)
}

// FeeInput is the JSON-friendly form of a recurring fee (§4 table row
// "Fees").
type FeeInput struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Kind       string  `json:"kind"` // FLAT | RATE_ON_BASIS
	Rate       float64 `json:"rate,omitempty"`
	FlatAmount float64 `json:"flat_amount,omitempty"`
}

func (f FeeInput) toFee(n int) *fees.Fee {
	return fees.New(f.ID, f.Name, fees.Kind(f.Kind), money.NewRate(f.Rate), money.NewAmount(f.FlatAmount), n)
}

// TriggerInput is the JSON-friendly form of an OC/IC trigger (§3, §4.7).
type TriggerInput struct {
	ID            string  `json:"id"`
	Kind          string  `json:"kind"` // OC | IC
	Threshold     float64 `json:"threshold"`
	ProtectedRank int     `json:"protected_rank"`
}

// ReinvestmentPolicyInput is the JSON-friendly form of §4.11's
// pre/post reinvestment-end-date (type, pct) pairs.
type ReinvestmentPolicyInput struct {
	PreType  string  `json:"pre_type"`
	PrePct   float64 `json:"pre_pct"`
	PostType string  `json:"post_type"`
	PostPct  float64 `json:"post_pct"`
}

// ReinvestmentConfigInput is the JSON-friendly form of the synthetic
// reinvestment collateral's static parameters (§3 Reinvestment period).
type ReinvestmentConfigInput struct {
	MaturityMonths   int     `json:"maturity_months"`
	ReinvestPrice    float64 `json:"reinvest_price"`
	Spread           float64 `json:"spread"`
	Floor            float64 `json:"floor"`
	LiquidationPrice float64 `json:"liquidation_price"`
	LagPeriods       int     `json:"lag_periods"`
}

// IncentiveFeeInput is the JSON-friendly form of §3's incentive-fee
// state fixed parameters, plus the historical sub-note payments
// DealSetup discards anything dated after AnalysisDate from (§4.9).
type IncentiveFeeInput struct {
	Hurdle                float64              `json:"hurdle"`
	FeeRate               float64              `json:"fee_rate"`
	ClosingDate           string               `json:"closing_date"`
	HistoricalSubPayments []SubPaymentInput    `json:"historical_sub_payments,omitempty"`
}

type SubPaymentInput struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// InputBundle is the full JSON form of a deal run's input bundle
// (§6). It is read by cmd/clo-run and converted to a runnable Deal by
// Build.
type InputBundle struct {
	AnalysisDate            string `json:"analysis_date"`
	ClosingDate              string `json:"closing_date"`
	FirstPaymentDate         string `json:"first_payment_date"`
	MaturityDate             string `json:"maturity_date"`
	ReinvestmentEndDate      string `json:"reinvestment_end_date"`
	NoCallDate               string `json:"no_call_date"`
	MonthsBetweenPayments    int    `json:"months_between_payments"`
	BusinessDayConvention    string `json:"business_day_convention"`
	DayCount                 string `json:"day_count"`
	DeterminationOffsetDays  int    `json:"determination_date_offset_days"`

	CurrentLibor                   float64 `json:"current_libor"`
	EventOfDefault                 bool    `json:"event_of_default"`
	PurchaseFinanceAccruedInterest float64 `json:"purchase_finance_accrued_interest"`
	CallWhenQuarterlySubDistBelow  float64 `json:"call_when_quarterly_sub_dist_below"`

	PrepayCurve   float64 `json:"prepay_curve"`
	DefaultCurve  float64 `json:"default_curve"`
	SeverityCurve float64 `json:"severity_curve"`
	RecoveryLagPeriods int `json:"recovery_lag_periods"`

	YieldCurve map[string]float64 `json:"yield_curve"` // tenor months (as string) -> rate

	CCCHaircutRate float64 `json:"ccc_haircut_rate"`
	EODTriggerID   string  `json:"eod_trigger_id"`

	ReinvestmentPolicy ReinvestmentPolicyInput `json:"reinvestment_policy"`
	ReinvestmentConfig ReinvestmentConfigInput `json:"reinvestment_config"`
	IncentiveFee       *IncentiveFeeInput      `json:"incentive_fee,omitempty"`

	Assets   []AssetInput   `json:"assets"`
	Tranches []TrancheInput `json:"tranches"`
	Fees     []FeeInput     `json:"fees"`
	Triggers []TriggerInput `json:"triggers"`

	// InitialAccounts is the §6 input-bundle "Initial accounts" map,
	// keyed by account kind (COLLECTION, RAMP_UP, ...).
	InitialAccounts map[string]AccountInput `json:"initial_accounts,omitempty"`
}

// AccountInput is the JSON-friendly form of an Account (§3).
type AccountInput struct {
	Interest  float64 `json:"interest"`
	Principal float64 `json:"principal"`
}

// parseDate parses a required date field, wrapping the error with
// field name for diagnosis.
func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", field, err)
	}
	return t, nil
}

func reinvestmentBasis(s string) ReinvestmentBasis {
	switch s {
	case "ALL_PRINCIPAL":
		return AllPrincipal
	case "UNSCHEDULED_PRINCIPAL":
		return UnscheduledPrincipal
	default:
		return NoReinvestment
	}
}

// Build converts a wire InputBundle into a runnable Deal: it parses
// dates, builds the payment schedule, projects every asset's
// cash-flow strip, wires tranches/fees/triggers/reinvestment/
// incentive-fee, and assigns the standard interest/principal/EOD
// waterfall builders (§6 Input bundle; §4.10 step 1-2).
func Build(b InputBundle) (*Deal, error) {
	const op = "dealengine.Build"

	analysisDate, err := parseDate("analysis_date", b.AnalysisDate)
	if err != nil {
		return nil, errs.New(errs.Validation, op, err.Error())
	}
	firstPayment, err := parseDate("first_payment_date", b.FirstPaymentDate)
	if err != nil {
		return nil, errs.New(errs.Validation, op, err.Error())
	}
	maturity, err := parseDate("maturity_date", b.MaturityDate)
	if err != nil {
		return nil, errs.New(errs.Validation, op, err.Error())
	}
	reinvestmentEnd, err := parseDate("reinvestment_end_date", b.ReinvestmentEndDate)
	if err != nil {
		return nil, errs.New(errs.Validation, op, err.Error())
	}
	noCallDate, err := parseDate("no_call_date", b.NoCallDate)
	if err != nil {
		return nil, errs.New(errs.Validation, op, err.Error())
	}
	if b.MonthsBetweenPayments <= 0 {
		return nil, errs.New(errs.Validation, op, "months_between_payments must be > 0")
	}

	ctx := calendar.Context{}
	dayCount := calendar.Convention(b.DayCount)
	convention := calendar.BusinessDayConvention(b.BusinessDayConvention)

	schedule := CalcPaymentDates(ctx, firstPayment, maturity, b.MonthsBetweenPayments, convention, b.DeterminationOffsetDays)
	horizon := len(schedule) - 1
	if horizon < 1 {
		return nil, errs.New(errs.Validation, op, "schedule produced no periods")
	}

	yieldCurve := curve.New("LIBOR")
	tenorRates := make(map[int]float64, len(b.YieldCurve))
	for tenor, rate := range b.YieldCurve {
		m, convErr := parseTenorMonths(tenor)
		if convErr != nil {
			return nil, errs.New(errs.Validation, op, convErr.Error())
		}
		tenorRates[m] = rate
	}
	if len(tenorRates) > 0 {
		if err := yieldCurve.Setup(analysisDate, tenorRates); err != nil {
			return nil, err
		}
	}

	monthsPerPeriod := 12 / b.MonthsBetweenPayments

	p := pool.New()
	strips := make(map[string]*cashflow.Strip, len(b.Assets))
	for _, ai := range b.Assets {
		obligation, err := ai.toObligation()
		if err != nil {
			return nil, errs.New(errs.Validation, op, err.Error())
		}
		genInput := asset.GenerationInput{
			CalendarCtx:        ctx,
			PrepayCurve:        asset.AnnualRateCurve{Scalar: b.PrepayCurve},
			DefaultCurve:       asset.AnnualRateCurve{Scalar: b.DefaultCurve},
			SeverityCurve:      asset.AnnualRateCurve{Scalar: b.SeverityCurve},
			RecoveryLagPeriods: b.RecoveryLagPeriods,
			MonthsPerPeriod:    monthsPerPeriod,
		}
		if obligation.Rate.Float != nil {
			genInput.IndexCurve = yieldCurve
		}
		strip, err := asset.Generate(obligation, genInput)
		if err != nil {
			return nil, err
		}
		p.ParAdjust(obligation.ID, obligation.ParAmount, obligation)
		strips[obligation.ID] = strip
	}

	for kind, acc := range b.InitialAccounts {
		p.Accounts.Credit(pool.AccountKind(kind), money.NewAmount(acc.Interest), money.NewAmount(acc.Principal))
	}

	tranches := make([]*liability.Tranche, 0, len(b.Tranches))
	for _, ti := range b.Tranches {
		tranches = append(tranches, ti.toTranche(horizon))
	}

	ledger := fees.NewLedger()
	for _, fi := range b.Fees {
		ledger.Add(fi.toFee(horizon))
	}

	triggers := make([]*trigger.Trigger, 0, len(b.Triggers))
	for _, tgi := range b.Triggers {
		triggers = append(triggers, trigger.New(tgi.ID, trigger.Kind(tgi.Kind), tgi.Threshold, tgi.ProtectedRank))
	}

	reinvEngine := reinvestment.New(reinvestment.Config{
		MaturityMonths:        b.ReinvestmentConfig.MaturityMonths,
		ReinvestPrice:         b.ReinvestmentConfig.ReinvestPrice,
		Spread:                money.NewRate(b.ReinvestmentConfig.Spread),
		Floor:                 money.NewRate(b.ReinvestmentConfig.Floor),
		LiquidationPrice:      b.ReinvestmentConfig.LiquidationPrice,
		LagPeriods:            b.ReinvestmentConfig.LagPeriods,
		PrepayCurve:           asset.AnnualRateCurve{Scalar: b.PrepayCurve},
		DefaultCurve:          asset.AnnualRateCurve{Scalar: b.DefaultCurve},
		SeverityCurve:         asset.AnnualRateCurve{Scalar: b.SeverityCurve},
		MonthlyCurve:          yieldCurve,
		MonthsPerPeriod:       monthsPerPeriod,
		CalendarCtx:           ctx,
		DayCount:              dayCount,
		BusinessDayConvention: convention,
	}, horizon)

	var incentiveFee *incentivefee.State
	if b.IncentiveFee != nil {
		closingDate, err := parseDate("incentive_fee.closing_date", b.IncentiveFee.ClosingDate)
		if err != nil {
			return nil, errs.New(errs.Validation, op, err.Error())
		}
		incentiveFee = incentivefee.New(b.IncentiveFee.Hurdle, b.IncentiveFee.FeeRate, closingDate, horizon)
		historical := make([]incentivefee.CashFlow, 0, len(b.IncentiveFee.HistoricalSubPayments))
		for _, sp := range b.IncentiveFee.HistoricalSubPayments {
			d, err := parseDate("incentive_fee.historical_sub_payments.date", sp.Date)
			if err != nil {
				return nil, errs.New(errs.Validation, op, err.Error())
			}
			historical = append(historical, incentivefee.CashFlow{Date: d, Amount: sp.Amount})
		}
		incentiveFee.DealSetup(historical, analysisDate)
	}

	residual := new(money.Amount)
	deal := New(Deal{
		CalendarCtx:         ctx,
		DayCount:            dayCount,
		Schedule:            schedule,
		Horizon:             horizon,
		NoCallDate:          noCallDate,
		ReinvestmentEndDate: reinvestmentEnd,
		MaturityDate:        maturity,
		Pool:                p,
		Strips:              strips,
		Tranches:            tranches,
		Triggers:            triggers,
		FeeLedger:           ledger,
		Reinvestment:        reinvEngine,
		IncentiveFee:        incentiveFee,
		LiborCurve:          yieldCurve,
		Inputs: CLOInputs{
			CurrentLibor:                   money.NewRate(b.CurrentLibor),
			EventOfDefault:                 b.EventOfDefault,
			PurchaseFinanceAccruedInterest: money.NewAmount(b.PurchaseFinanceAccruedInterest),
			CallWhenQuarterlySubDistBelow:  money.NewAmount(b.CallWhenQuarterlySubDistBelow),
		},
		Policy: ReinvestmentPolicy{
			DuringBasis:         reinvestmentBasis(b.ReinvestmentPolicy.PreType),
			DuringPct:           b.ReinvestmentPolicy.PrePct,
			AfterBasis:          reinvestmentBasis(b.ReinvestmentPolicy.PostType),
			AfterPct:            b.ReinvestmentPolicy.PostPct,
			ReinvestmentEndDate: reinvestmentEnd,
			MaturityDate:        maturity,
		},
		EODTriggerID:            b.EODTriggerID,
		CCCHaircutRate:          b.CCCHaircutRate,
		BuildInterestWaterfall:  StandardInterestWaterfall(residual),
		BuildPrincipalWaterfall: StandardPrincipalWaterfall(residual),
		BuildEODWaterfall:       StandardEODWaterfall(residual),
	})
	deal.DealSetup()
	return deal, nil
}

// parseTenorMonths converts a JSON object key (tenor in months, as a
// string because JSON object keys are always strings) back to an int.
func parseTenorMonths(s string) (int, error) {
	var m int
	if _, err := fmt.Sscanf(s, "%d", &m); err != nil {
		return 0, fmt.Errorf("yield_curve tenor %q: %w", s, err)
	}
	return m, nil
}
