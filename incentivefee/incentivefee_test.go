package incentivefee

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo-clo/engine/money"
)

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

// TestHurdleCrossing mirrors §8 scenario 4: hurdle 0.08, fee 0.20,
// closing 2020-01-01. No historical sub-payments. Payments of
// 1,000,000 on 2021-01-01 and 1,000,000 on 2022-01-01 don't cross the
// hurdle; a third payment of 2,000,000 on 2023-01-01 crosses it; a
// subsequent payment of 100,000 on 2024-01-01 then earns a fee of
// 20,000 (net 80,000).
func TestHurdleCrossing_MatchesWorkedScenario(t *testing.T) {
	s := New(0.08, 0.20, date(2020, 1, 1), 5)
	s.DealSetup(nil, date(2020, 1, 1))

	s.Calc(1, date(2021, 1, 1))
	s.PayToSubNoteholders(1_000_000)
	require.NoError(t, advance(t, s, date(2021, 1, 1)))
	assert.False(t, s.ThresholdReached())

	s.Calc(2, date(2022, 1, 1))
	s.PayToSubNoteholders(1_000_000)
	require.NoError(t, advance(t, s, date(2022, 1, 1)))
	assert.False(t, s.ThresholdReached())

	s.Calc(3, date(2023, 1, 1))
	s.PayToSubNoteholders(2_000_000)
	require.NoError(t, advance(t, s, date(2023, 1, 1)))
	assert.True(t, s.ThresholdReached())

	s.Calc(4, date(2024, 1, 1))
	net, fee := s.PayIncentiveFee(4, money.NewAmount(100_000))
	assert.InDelta(t, 20_000, fee.Float64(), 1.0)
	assert.InDelta(t, 80_000, net.Float64(), 1.0)
}

func advance(t *testing.T, s *State, nextPay time.Time) error {
	t.Helper()
	_, err := s.RollForward(nextPay)
	return err
}

func TestThresholdReached_IsMonotone(t *testing.T) {
	s := New(0.08, 0.20, date(2020, 1, 1), 2)
	s.DealSetup([]CashFlow{{Date: date(2019, 6, 1), Amount: 5_000_000}}, date(2020, 1, 1))
	assert.True(t, s.ThresholdReached(), "a large historical sub-payment alone can already clear the hurdle")

	s.Calc(1, date(2021, 1, 1))
	s.PayToSubNoteholders(0)
	assert.True(t, s.ThresholdReached(), "once reached, never resets")
}
