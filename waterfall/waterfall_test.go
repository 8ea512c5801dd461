package waterfall

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo-clo/engine/fees"
	"github.com/meenmo-clo/engine/liability"
	"github.com/meenmo-clo/engine/money"
)

func TestSequence_InterestCascade(t *testing.T) {
	// mirrors §8 scenario 5: interest_pool = 1,000,000; trustee 10,000
	// flat, senior mgmt 15,000, Class A due 500,000, Class B due
	// 400,000, junior mgmt 50,000, residual.
	trustee := fees.New("trustee", "Trustee", fees.Flat, money.ZeroRate, money.NewAmount(10_000), 1)
	trustee.AccrueDue(1, 0, money.Zero)
	seniorMgmt := fees.New("senior-mgmt", "Senior mgmt", fees.Flat, money.ZeroRate, money.NewAmount(15_000), 1)
	seniorMgmt.AccrueDue(1, 0, money.Zero)
	juniorMgmt := fees.New("junior-mgmt", "Junior mgmt", fees.Flat, money.ZeroRate, money.NewAmount(50_000), 1)
	juniorMgmt.AccrueDue(1, 0, money.Zero)

	classA := liability.New("A", 0, money.NewAmount(10_000_000), liability.CouponSpec{Fixed: &liability.FixedCoupon{}}, false, 1)
	classA.InterestDue[1] = money.NewAmount(500_000)
	classB := liability.New("B", 1, money.NewAmount(5_000_000), liability.CouponSpec{Fixed: &liability.FixedCoupon{}}, false, 1)
	classB.InterestDue[1] = money.NewAmount(400_000)

	var residual money.Amount
	seq := Sequence{Steps: []Step{
		FeeStep(trustee, 1),
		FeeStep(seniorMgmt, 1),
		TrancheInterestStep(classA, 1),
		TrancheInterestStep(classB, 1),
		FeeStep(juniorMgmt, 1),
		ResidualStep(&residual),
	}}

	payments, remainder, err := seq.Run(money.NewAmount(1_000_000))
	require.NoError(t, err)

	assert.InDelta(t, 10_000, payments[0].Paid.Float64(), 0.01)
	assert.InDelta(t, 15_000, payments[1].Paid.Float64(), 0.01)
	assert.InDelta(t, 500_000, payments[2].Paid.Float64(), 0.01)
	assert.InDelta(t, 400_000, payments[3].Paid.Float64(), 0.01)
	assert.InDelta(t, 50_000, payments[4].Paid.Float64(), 0.01)
	assert.InDelta(t, 0, remainder.Float64(), 0.01)
	assert.InDelta(t, 25_000, residual.Float64(), 0.01, "25,000 of the 1,000,000 interest pool falls through to residual")
}

func TestReinvestmentStep_SkippedOutsideReinvestmentPeriod(t *testing.T) {
	called := false
	step := ReinvestmentStep(false, money.NewAmount(1_000_000), func(money.Amount) error { called = true; return nil })
	paid, err := step.Apply(money.NewAmount(500_000))
	require.NoError(t, err)
	assert.True(t, paid.IsZero())
	assert.False(t, called)
}
