package dealengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo-clo/engine/asset"
	"github.com/meenmo-clo/engine/calendar"
	"github.com/meenmo-clo/engine/cashflow"
	"github.com/meenmo-clo/engine/curve"
	"github.com/meenmo-clo/engine/fees"
	"github.com/meenmo-clo/engine/liability"
	"github.com/meenmo-clo/engine/money"
	"github.com/meenmo-clo/engine/pool"
	"github.com/meenmo-clo/engine/reinvestment"
	"github.com/meenmo-clo/engine/trigger"
)

func flatLibor(t *testing.T, rate float64) *curve.Curve {
	t.Helper()
	c := curve.New("LIBOR")
	require.NoError(t, c.Setup(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), map[int]float64{1: rate, 60: rate}))
	return c
}

// buildSmallDeal assembles a 4-period, single-obligation, single-
// tranche deal to exercise the full period loop end to end.
func buildSmallDeal(t *testing.T) *Deal {
	t.Helper()
	ctx := calendar.Context{}
	schedule := CalcPaymentDates(ctx, time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), 3, calendar.ModFollowing, 2)
	require.Equal(t, 4, len(schedule)-1)

	obligation := &asset.Obligation{
		ID: "LOAN-1", ParAmount: money.NewAmount(10_000_000),
		Kind: asset.Loan, Seniority: asset.SeniorSecured,
		DatedDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		FirstPaymentDate: time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC),
		MaturityDate: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		PaymentFrequencyPerYear: 4,
		DayCount: calendar.ACT360,
		BusinessDayConvention: calendar.ModFollowing,
		Rate: asset.RateSpec{Fixed: &asset.FixedRate{Coupon: money.NewRate(0.06)}},
		Amortization: asset.AmortizationSpec{Bullet: &struct{}{}},
	}
	strip, err := asset.Generate(obligation, asset.GenerationInput{
		CalendarCtx: ctx,
		PrepayCurve: asset.AnnualRateCurve{Scalar: 0},
		DefaultCurve: asset.AnnualRateCurve{Scalar: 0},
		SeverityCurve: asset.AnnualRateCurve{Scalar: 0.6},
		RecoveryLagPeriods: 1,
	})
	require.NoError(t, err)

	p := pool.New()
	p.ParAdjust(obligation.ID, obligation.ParAmount, obligation)

	trancheA := liability.New("A", 0, money.NewAmount(8_000_000),
		liability.CouponSpec{Fixed: &liability.FixedCoupon{Rate: money.NewRate(0.05)}}, false, 4)

	trusteeFee := fees.New("trustee", "Trustee Fee", fees.Flat, money.ZeroRate, money.NewAmount(1_000), 4)
	ledger := fees.NewLedger()
	ledger.Add(trusteeFee)

	ocTrigger := trigger.New("A-OC", trigger.OC, 1.10, 0)

	reinvEngine := reinvestment.New(reinvestment.Config{
		MaturityMonths: 24, ReinvestPrice: 0.99,
		Spread: money.NewRate(0.03), Floor: money.ZeroRate,
		LiquidationPrice: 0.80, LagPeriods: 1,
		PrepayCurve: asset.AnnualRateCurve{Scalar: 0}, DefaultCurve: asset.AnnualRateCurve{Scalar: 0},
		SeverityCurve: asset.AnnualRateCurve{Scalar: 0.6},
		MonthlyCurve: flatLibor(t, 0.02), MonthsPerPeriod: 3,
		CalendarCtx: ctx, DayCount: calendar.ACT360, BusinessDayConvention: calendar.ModFollowing,
	}, 4)

	residual := new(money.Amount)
	deal := New(Deal{
		CalendarCtx: ctx, DayCount: calendar.ACT360,
		Schedule: schedule, Horizon: 4,
		NoCallDate:   time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC),
		MaturityDate: obligation.MaturityDate,
		ReinvestmentEndDate: time.Date(2020, 10, 1, 0, 0, 0, 0, time.UTC),
		Pool:         p,
		Strips:       map[string]*cashflow.Strip{obligation.ID: strip},
		Tranches:     []*liability.Tranche{trancheA},
		Triggers:     []*trigger.Trigger{ocTrigger},
		FeeLedger:    ledger,
		Reinvestment: reinvEngine,
		LiborCurve:   flatLibor(t, 0.02),
		Inputs: CLOInputs{
			CurrentLibor: money.NewRate(0.02),
			CallWhenQuarterlySubDistBelow: money.NewAmount(1),
		},
		Policy: ReinvestmentPolicy{
			DuringBasis: AllPrincipal, DuringPct: 0.5,
			AfterBasis: NoReinvestment, AfterPct: 0,
			ReinvestmentEndDate: time.Date(2020, 10, 1, 0, 0, 0, 0, time.UTC),
			MaturityDate: obligation.MaturityDate,
		},
		EODTriggerID:            "none",
		CCCHaircutRate:          0.3,
		BuildInterestWaterfall:  StandardInterestWaterfall(residual),
		BuildPrincipalWaterfall: StandardPrincipalWaterfall(residual),
		BuildEODWaterfall:       StandardEODWaterfall(residual),
	})
	deal.DealSetup()
	return deal
}

func TestRunPeriod_CollectsInterestAndPaysFeesAndTranche(t *testing.T) {
	deal := buildSmallDeal(t)

	result, err := deal.RunPeriod()
	require.NoError(t, err)
	assert.False(t, result.EOD)
	assert.True(t, result.InterestCollected.IsPositive())
	assert.Equal(t, 2, deal.Period())

	var trusteePaid, trancheAPaid money.Amount
	for _, sp := range result.InterestPayments {
		switch sp.Name {
		case "fee:trustee":
			trusteePaid = sp.Paid
		case "interest:A":
			trancheAPaid = sp.Paid
		}
	}
	assert.True(t, trusteePaid.IsPositive(), "trustee fee should be paid first")
	assert.True(t, trancheAPaid.IsPositive(), "tranche A should receive interest")
}

func TestRunPeriod_FullRunProducesRiskMeasures(t *testing.T) {
	deal := buildSmallDeal(t)
	for deal.Period() <= deal.Horizon {
		_, err := deal.RunPeriod()
		require.NoError(t, err)
	}

	measures, err := deal.CalcRiskMeasures("A", money.NewAmount(8_000_000), 1.0, 4)
	require.NoError(t, err)
	assert.Greater(t, measures.WAL, 0.0)
}

func TestEODBreached_RoutesThroughEODWaterfallWhenFlagSet(t *testing.T) {
	deal := buildSmallDeal(t)
	deal.Inputs.EventOfDefault = true

	result, err := deal.RunPeriod()
	require.NoError(t, err)
	assert.True(t, result.EOD)
}
