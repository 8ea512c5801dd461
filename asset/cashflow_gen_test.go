package asset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo-clo/engine/calendar"
	"github.com/meenmo-clo/engine/money"
)

func bulletBond(par float64, coupon float64) *Obligation {
	return &Obligation{
		ID:               "A1",
		Kind:             Loan,
		Seniority:        SeniorSecured,
		ParAmount:        money.NewAmount(par),
		DatedDate:        time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		FirstPaymentDate: time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC),
		MaturityDate:     time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		PaymentFrequencyPerYear: 4,
		DayCount:                calendar.Thirty360US,
		BusinessDayConvention:   calendar.NoAdjust,
		Rate:                    RateSpec{Fixed: &FixedRate{Coupon: money.NewRate(coupon)}},
		Amortization:            AmortizationSpec{Bullet: &struct{}{}},
	}
}

func TestGenerate_SingleAssetBulletBond_NoPrepayNoDefault(t *testing.T) {
	o := bulletBond(1_000_000, 0.05)
	strip, err := Generate(o, GenerationInput{CalendarCtx: calendar.NewContext(nil)})
	require.NoError(t, err)
	require.Equal(t, 4, strip.Periods())

	for p := 1; p <= 3; p++ {
		assert.InDelta(t, 12500.0, strip.Interest[p].Float64(), 0.5)
		assert.True(t, strip.SchedPrincipal[p].IsZero(), "period %d", p)
	}
	assert.InDelta(t, 1_000_000.0, strip.SchedPrincipal[4].Float64(), 0.5)
	assert.True(t, strip.EndBalance[4].IsZero())
}

func TestGenerate_FullDefaultInPeriod2(t *testing.T) {
	o := bulletBond(1_000_000, 0.05)
	in := GenerationInput{
		CalendarCtx:  calendar.NewContext(nil),
		DefaultCurve: AnnualRateCurve{Vector: []float64{0, 1.0, 0, 0}},
		SeverityCurve: AnnualRateCurve{Scalar: 0.4},
		RecoveryLagPeriods: 1,
	}
	strip, err := Generate(o, in)
	require.NoError(t, err)

	assert.InDelta(t, 1_000_000.0, strip.Default[2].Float64(), 1.0)
	assert.InDelta(t, 600_000.0, strip.MVDefault[2].Float64(), 1.0)
	assert.InDelta(t, 600_000.0, strip.Recoveries[3].Float64(), 1.0)
	assert.InDelta(t, 400_000.0, strip.NetLoss[3].Float64(), 1.0)
	assert.True(t, strip.EndBalance[3].IsZero())
	assert.True(t, strip.EndBalance[4].IsZero())
}

func TestGenerate_100PercentPrepayPeriod1(t *testing.T) {
	o := bulletBond(1_000_000, 0.05)
	in := GenerationInput{
		CalendarCtx: calendar.NewContext(nil),
		PrepayCurve: AnnualRateCurve{Vector: []float64{1.0, 0, 0, 0}},
	}
	strip, err := Generate(o, in)
	require.NoError(t, err)

	assert.True(t, strip.EndBalance[1].IsZero())
	for p := 2; p <= 4; p++ {
		assert.True(t, strip.BegBalance[p].IsZero())
		assert.True(t, strip.EndBalance[p].IsZero())
	}
}

func TestGenerate_FloorBinding_WhenIndexNegative(t *testing.T) {
	o := bulletBond(1_000_000, 0)
	o.Rate = RateSpec{Float: &FloatRate{IndexName: "LIBOR", Spread: money.NewRate(0.02), Floor: money.NewRate(0.01)}}

	c := newFlatCurve(t, -0.05)
	strip, err := Generate(o, GenerationInput{
		CalendarCtx:     calendar.NewContext(nil),
		IndexCurve:      c,
		MonthsPerPeriod: 3,
	})
	require.NoError(t, err)

	// floor(0.01) + spread(0.02) = 0.03 coupon applied
	assert.InDelta(t, 7500.0, strip.Interest[1].Float64(), 1.0)
}
