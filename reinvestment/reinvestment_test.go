package reinvestment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo-clo/engine/asset"
	"github.com/meenmo-clo/engine/calendar"
	"github.com/meenmo-clo/engine/curve"
	"github.com/meenmo-clo/engine/money"
)

func flatCurve(t *testing.T, rate float64) *curve.Curve {
	t.Helper()
	c := curve.New("LIBOR")
	require.NoError(t, c.Setup(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), map[int]float64{1: rate, 60: rate}))
	return c
}

func testConfig(t *testing.T) Config {
	return Config{
		MaturityMonths:   36,
		ReinvestPrice:    0.99,
		Spread:           money.NewRate(0.03),
		Floor:            money.NewRate(0.0),
		LiquidationPrice: 0.80,
		LagPeriods:       2,
		PrepayCurve:      asset.AnnualRateCurve{Scalar: 0.10},
		DefaultCurve:     asset.AnnualRateCurve{Scalar: 0.02},
		SeverityCurve:    asset.AnnualRateCurve{Scalar: 0.40},
		MonthlyCurve:     flatCurve(t, 0.02),
		MonthsPerPeriod:  3,
		CalendarCtx:      calendar.Context{},
		DayCount:         calendar.ACT360,
		BusinessDayConvention: calendar.ModFollowing,
	}
}

func TestAddReinvestment_FoldsIntoAggregateAfterPurchasePeriod(t *testing.T) {
	e := New(testConfig(t), 20)
	require.NoError(t, e.AddReinvestment(money.NewAmount(10_000_000), time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)))

	assert.True(t, e.GetProceeds("INTEREST").IsZero(), "current period has no proceeds yet, the lot starts next period")

	e.RollForward()
	assert.True(t, e.GetProceeds("INTEREST").IsPositive(), "next period should show interest from the new lot")
}

func TestLiquidate_ZeroesFuturePeriods(t *testing.T) {
	e := New(testConfig(t), 20)
	require.NoError(t, e.AddReinvestment(money.NewAmount(10_000_000), time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)))
	e.RollForward()

	sold, loss := e.Liquidate(0.80)
	assert.True(t, sold.IsPositive())
	assert.False(t, loss.IsNegative())

	e.RollForward()
	assert.True(t, e.GetProceeds("PRINCIPAL").IsZero(), "liquidated lot contributes nothing after its liquidation period")
}
