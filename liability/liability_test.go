package liability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo-clo/engine/money"
)

func TestResetRate_FloatFloorClamp(t *testing.T) {
	tr := New("A", 0, money.NewAmount(100_000_000), CouponSpec{Float: &FloatCoupon{
		Spread: money.NewRate(0.02), Floor: money.NewRate(0.01),
	}}, false, 4)

	tr.ResetRate(money.NewRate(-0.005)) // LIBOR briefly negative
	assert.InDelta(t, 0.03, tr.CurrentRate.Float64(), 1e-6, "floor+spread must win over index+spread")

	tr.ResetRate(money.NewRate(0.05))
	assert.InDelta(t, 0.07, tr.CurrentRate.Float64(), 1e-6)
}

func TestAccrueInterest_CarriesDeferredForward(t *testing.T) {
	tr := New("A", 0, money.NewAmount(0), CouponSpec{Fixed: &FixedCoupon{Rate: money.NewRate(0.05)}}, true, 3)
	tr.DeferredInterest = money.NewAmount(1000)

	due, err := tr.AccrueInterest(1, 0.25, money.NewAmount(1_000_000))
	require.NoError(t, err)
	assert.InDelta(t, 1_000_000*0.05*0.25+1000, due.Float64(), 0.01)
	assert.True(t, tr.DeferredInterest.IsZero())
}

func TestApplyPayment_ShortfallBecomesDeferredForPIKEligible(t *testing.T) {
	tr := New("A", 0, money.NewAmount(1_000_000), CouponSpec{Fixed: &FixedCoupon{Rate: money.NewRate(0.05)}}, true, 2)
	_, err := tr.AccrueInterest(1, 1.0, money.NewAmount(1_000_000))
	require.NoError(t, err)

	tr.ApplyPayment(1, money.NewAmount(20_000))

	assert.InDelta(t, 30_000, tr.DeferredInterest.Float64(), 0.01)
	assert.InDelta(t, 1_030_000, tr.Balance.Float64(), 0.01, "PIK shortfall capitalizes into balance")
}

func TestPayDownPrincipal_ClampsToBalance(t *testing.T) {
	tr := New("A", 0, money.NewAmount(500), CouponSpec{Fixed: &FixedCoupon{}}, false, 1)
	paid := tr.PayDownPrincipal(money.NewAmount(900))
	assert.InDelta(t, 500, paid.Float64(), 0.01)
	assert.True(t, tr.Balance.IsZero())
}
