package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestYearFraction_Thirty360US_TerminalAdjustment(t *testing.T) {
	cases := []struct {
		name     string
		start    time.Time
		end      time.Time
		expected float64
	}{
		{"quarter", date(2020, 1, 1), date(2020, 4, 1), 90.0 / 360.0},
		{"31st to 31st rolls both to 30", date(2020, 1, 31), date(2020, 3, 31), 60.0 / 360.0},
		{"30th to 31st: second 31 rolls because first was 30", date(2020, 1, 30), date(2020, 3, 31), 60.0 / 360.0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := YearFraction(c.start, c.end, Thirty360US)
			assert.InDelta(t, c.expected, got, 1e-9)
		})
	}
}

func TestYearFraction_ACT360_ACT365(t *testing.T) {
	start := date(2020, 1, 1)
	end := date(2020, 4, 1)
	days := end.Sub(start).Hours() / 24

	assert.InDelta(t, days/360.0, YearFraction(start, end, ACT360), 1e-9)
	assert.InDelta(t, days/365.0, YearFraction(start, end, ACT365), 1e-9)
}

func TestYearFraction_ACTACT_LeapYearWeighting(t *testing.T) {
	// spans a leap year (2020) and a non-leap year (2021)
	start := date(2020, 7, 1)
	end := date(2021, 7, 1)

	got := YearFraction(start, end, ACTACT)
	// 184 days remaining in 2020 (leap, 366) + 181 days in 2021 (non-leap, 365)
	expected := 184.0/366.0 + 181.0/365.0
	assert.InDelta(t, expected, got, 1e-6)
}

func TestContext_Adjust_ModFollowingCrossesMonth(t *testing.T) {
	// 2020-05-30 is a Saturday; FOLLOWING lands on Monday 2020-06-01,
	// crossing into June, so MOD_FOLLOWING must fall back to PREVIOUS.
	ctx := NewContext(nil)
	t_ := date(2020, 5, 30)

	following := ctx.Adjust(t_, Following)
	assert.Equal(t, date(2020, 6, 1), following)

	modFollowing := ctx.Adjust(t_, ModFollowing)
	assert.True(t, modFollowing.Before(following))
	assert.Equal(t, time.May, modFollowing.Month())
}

func TestContext_Adjust_Holiday(t *testing.T) {
	holiday := date(2020, 7, 3) // a Friday
	ctx := NewContext([]time.Time{holiday})

	assert.Equal(t, date(2020, 7, 6), ctx.Adjust(holiday, Following))
	assert.Equal(t, date(2020, 7, 2), ctx.Adjust(holiday, Previous))
}

func TestBuildSchedule_QuarterlyFourPeriods(t *testing.T) {
	ctx := NewContext(nil)
	spec := ScheduleSpec{
		FirstPaymentDate: date(2020, 4, 1),
		MaturityDate:     date(2021, 1, 1),
		FrequencyPerYear: 4,
		Convention:       NoAdjust,
	}

	periods := ctx.BuildSchedule(spec)
	assert.Len(t, periods, 4)
	assert.Equal(t, date(2020, 4, 1), periods[0].PaymentDate)
	assert.Equal(t, date(2021, 1, 1), periods[3].PaymentDate)
	assert.Equal(t, periods[0].PaymentDate, periods[1].AccrualBegin)
}
