package calendar

import "time"

// BusinessDayConvention identifies a business-day adjustment rule.
type BusinessDayConvention string

const (
	Following    BusinessDayConvention = "FOLLOWING"
	ModFollowing BusinessDayConvention = "MOD_FOLLOWING"
	Previous     BusinessDayConvention = "PREVIOUS"
	NoAdjust     BusinessDayConvention = "NONE"
)

// Context carries the holiday set and conventions threaded explicitly
// through calendar calls instead of a package-level global (Design
// Notes: "explicit Context value carrying calendar, holidays, and
// day-count tables").
type Context struct {
	Holidays map[string]struct{}
}

// NewContext builds a Context from a list of holiday dates.
func NewContext(holidays []time.Time) Context {
	m := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		m[key(h)] = struct{}{}
	}
	return Context{Holidays: m}
}

func key(t time.Time) string { return t.Format("2006-01-02") }

// IsBusinessDay reports whether t is a weekday that is not a holiday.
func (c Context) IsBusinessDay(t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	_, holiday := c.Holidays[key(t)]
	return !holiday
}

// Adjust applies the business-day convention to t (§4.1):
// FOLLOWING moves forward to the next business day; MOD_FOLLOWING
// does the same unless that crosses a month boundary, in which case
// it falls back to PREVIOUS; PREVIOUS moves backward; NONE leaves t
// unchanged.
func (c Context) Adjust(t time.Time, conv BusinessDayConvention) time.Time {
	switch conv {
	case Following:
		return c.following(t)
	case ModFollowing:
		adj := c.following(t)
		if adj.Month() != t.Month() {
			return c.previous(t)
		}
		return adj
	case Previous:
		return c.previous(t)
	default:
		return t
	}
}

func (c Context) following(t time.Time) time.Time {
	for !c.IsBusinessDay(t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

func (c Context) previous(t time.Time) time.Time {
	for !c.IsBusinessDay(t) {
		t = t.AddDate(0, 0, -1)
	}
	return t
}

// EndOfMonthDate pins t to the last calendar day of its month, for
// assets with the end-of-month schedule flag set.
func EndOfMonthDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location())
}

// AddMonths advances t by n months, behaving like Excel's EDATE
// rather than Go's native month-overflow rollover (e.g. Jan 31 + 1
// month lands on Feb 28/29, not Mar 3).
func AddMonths(t time.Time, n int) time.Time {
	target := t.AddDate(0, n, 0)
	if target.Day() != t.Day() {
		// overflowed into the following month; pin to month-end.
		return time.Date(target.Year(), target.Month(), 0, 0, 0, 0, 0, t.Location())
	}
	return target
}
