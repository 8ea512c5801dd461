// Package curve implements the spot/forward/zero-rate yield curve
// used by floating-rate coupons (§4.2). It interpolates a sparse
// tenor->rate map into a month-by-month forward curve, mirroring the
// bootstrap-then-query shape of the molib swap curve this package
// generalizes from a swap par curve to the CLO engine's simpler
// sparse-tenor input.
package curve

import (
	"math"
	"sort"
	"time"

	"github.com/meenmo-clo/engine/calendar"
	"github.com/meenmo-clo/engine/errs"
)

// Curve is a named yield curve anchored at an analysis date. It must
// be built through Setup before Spot/Zero rate queries succeed.
type Curve struct {
	name         string
	analysisDate time.Time
	setup        bool

	monthlySpot map[int]float64 // month -> spot rate, 1..maxMonth

	forwardByDate []forwardPoint // ordered by Date ascending
	lastDate      time.Time
	lastForward   float64
}

type forwardPoint struct {
	Date time.Time
	Rate float64
}

// New constructs an unconfigured Curve; call Setup before querying.
func New(name string) *Curve {
	return &Curve{name: name}
}

// Name returns the curve's identifying name (e.g. the index the
// curve represents, used to label obligations priced off it).
func (c *Curve) Name() string { return c.name }

// Setup interpolates the sparse tenor->rate map linearly across every
// integer month from 1 to the maximum supplied tenor, then derives
// forward rates f_i = ((1+s_{i+1})^(i+1) / (1+s_i)^i) - 1 indexed by
// the ordinal date analysis_date + i months (§4.2).
func (c *Curve) Setup(analysisDate time.Time, tenorRates map[int]float64) error {
	if len(tenorRates) == 0 {
		return errs.New(errs.Validation, "curve.Setup", "empty tenor rate map")
	}

	tenors := make([]int, 0, len(tenorRates))
	for m := range tenorRates {
		if m < 1 {
			return errs.New(errs.Validation, "curve.Setup", "tenor months must be >= 1")
		}
		tenors = append(tenors, m)
	}
	sort.Ints(tenors)
	maxMonth := tenors[len(tenors)-1]

	monthly := make(map[int]float64, maxMonth)
	for m := 1; m <= maxMonth; m++ {
		monthly[m] = interpolateTenor(m, tenors, tenorRates)
	}

	forwards := make([]forwardPoint, 0, maxMonth)
	prevCompound := 1.0
	prevMonth := 0
	for m := 1; m <= maxMonth; m++ {
		s := monthly[m]
		compound := math.Pow(1+s, float64(m))
		var f float64
		if prevMonth == 0 {
			// first period: forward equals the 1-month spot itself,
			// compounded from month 0 (compound factor 1).
			f = compound - 1
		} else {
			f = compound/prevCompound - 1
		}
		forwards = append(forwards, forwardPoint{
			Date: calendar.AddMonths(analysisDate, m),
			Rate: f,
		})
		prevCompound = compound
		prevMonth = m
	}

	c.analysisDate = analysisDate
	c.monthlySpot = monthly
	c.forwardByDate = forwards
	if len(forwards) > 0 {
		last := forwards[len(forwards)-1]
		c.lastDate = last.Date
		c.lastForward = last.Rate
	}
	c.setup = true
	return nil
}

func interpolateTenor(month int, tenors []int, rates map[int]float64) float64 {
	if r, ok := rates[month]; ok {
		return r
	}
	if month <= tenors[0] {
		return rates[tenors[0]]
	}
	if month >= tenors[len(tenors)-1] {
		return rates[tenors[len(tenors)-1]]
	}
	lo, hi := tenors[0], tenors[len(tenors)-1]
	for i := 0; i < len(tenors)-1; i++ {
		if tenors[i] <= month && month <= tenors[i+1] {
			lo, hi = tenors[i], tenors[i+1]
			break
		}
	}
	if lo == hi {
		return rates[lo]
	}
	w := float64(month-lo) / float64(hi-lo)
	return rates[lo] + w*(rates[hi]-rates[lo])
}

// forwardAt returns the forward rate applicable at ordinal date d,
// using the first forward before the curve starts, the last forward
// beyond the curve's horizon, and linear interpolation (weighted by
// ordinal-day distance) between bracketing forward dates otherwise.
func (c *Curve) forwardAt(d time.Time) float64 {
	if len(c.forwardByDate) == 0 {
		return 0
	}
	if !d.After(c.forwardByDate[0].Date) {
		return c.forwardByDate[0].Rate
	}
	if !d.Before(c.lastDate) {
		return c.lastForward
	}
	for i := 0; i < len(c.forwardByDate)-1; i++ {
		a, b := c.forwardByDate[i], c.forwardByDate[i+1]
		if !d.Before(a.Date) && !d.After(b.Date) {
			span := b.Date.Sub(a.Date).Hours()
			if span == 0 {
				return a.Rate
			}
			w := d.Sub(a.Date).Hours() / span
			return a.Rate + w*(b.Rate-a.Rate)
		}
	}
	return c.lastForward
}

// SpotRate compounds forward factors one month at a time starting at
// from, for nMonths months, then converts the geometric product back
// to a per-period arithmetic rate: (product)^(1/nMonths) - 1 (§4.2).
func (c *Curve) SpotRate(from time.Time, nMonths int) (float64, error) {
	if !c.setup {
		return 0, errs.CurveNotSetup("curve.SpotRate")
	}
	if nMonths < 1 {
		return 0, errs.OutOfRange("curve.SpotRate", "n_months must be >= 1")
	}

	product := 1.0
	cursor := from
	for i := 0; i < nMonths; i++ {
		next := calendar.AddMonths(cursor, 1)
		f := c.forwardAt(next)
		product *= 1 + f
		cursor = next
	}

	return math.Pow(product, 1.0/float64(nMonths)) - 1, nil
}

// ZeroRate linearly interpolates SpotRate(start, m) and
// SpotRate(start, m+1) on the fractional-month offset between start
// and end, where m is the whole number of months between them
// (§4.2).
func (c *Curve) ZeroRate(start, end time.Time) (float64, error) {
	if !c.setup {
		return 0, errs.CurveNotSetup("curve.ZeroRate")
	}

	m, frac := wholeMonthsAndFraction(start, end)
	if m < 1 {
		m = 1
		frac = 0
	}

	s1, err := c.SpotRate(start, m)
	if err != nil {
		return 0, err
	}
	s2, err := c.SpotRate(start, m+1)
	if err != nil {
		return 0, err
	}

	return s1 + frac*(s2-s1), nil
}

// wholeMonthsAndFraction returns the whole number of months between
// start and end, plus the fractional remainder measured against the
// following month's length.
func wholeMonthsAndFraction(start, end time.Time) (int, float64) {
	months := 0
	cursor := start
	for {
		next := calendar.AddMonths(cursor, 1)
		if next.After(end) {
			break
		}
		cursor = next
		months++
	}
	next := calendar.AddMonths(cursor, 1)
	span := next.Sub(cursor).Hours()
	if span == 0 {
		return months, 0
	}
	frac := end.Sub(cursor).Hours() / span
	if frac < 0 {
		frac = 0
	}
	return months, frac
}
