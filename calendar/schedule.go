package calendar

import "time"

// ScheduleSpec carries the parameters needed to build a payment
// schedule for an asset or tranche (§4.1).
type ScheduleSpec struct {
	FirstPaymentDate time.Time
	MaturityDate     time.Time
	FrequencyPerYear int // one of 1, 2, 4, 12
	Convention       BusinessDayConvention
	EndOfMonth       bool
}

// Period is one accrual period in a generated schedule: the nominal
// (unadjusted) payment date, the business-day-adjusted payment date,
// and the adjusted accrual boundaries (prev payment, this payment].
type Period struct {
	Nominal       time.Time
	PaymentDate   time.Time
	AccrualBegin  time.Time
	AccrualEnd    time.Time
}

// BuildSchedule steps from FirstPaymentDate by 12/Frequency months
// until MaturityDate, adjusting every nominal date by convention and
// pinning to month-end when EndOfMonth is set. Accrual boundaries for
// period p are the adjusted previous and current payment dates
// (§4.1).
func (c Context) BuildSchedule(spec ScheduleSpec) []Period {
	if spec.FrequencyPerYear <= 0 {
		return nil
	}
	step := 12 / spec.FrequencyPerYear

	var nominals []time.Time
	cur := spec.FirstPaymentDate
	for !cur.After(spec.MaturityDate) {
		nominals = append(nominals, cur)
		cur = AddMonths(cur, step)
	}
	if len(nominals) == 0 || !nominals[len(nominals)-1].Equal(spec.MaturityDate) {
		nominals = append(nominals, spec.MaturityDate)
	}

	periods := make([]Period, 0, len(nominals))
	prevAdjusted := spec.FirstPaymentDate
	// The first accrual begins at the dated date in the caller's
	// domain; callers that need dated_date != first nominal date
	// should override AccrualBegin on periods[0] themselves. Here we
	// treat the period before the first payment as bounded by the
	// first nominal minus one step, adjusted the same way.
	prevNominal := AddMonths(spec.FirstPaymentDate, -step)
	prevAdjusted = c.adjustNominal(prevNominal, spec)

	for _, nom := range nominals {
		adj := c.adjustNominal(nom, spec)
		periods = append(periods, Period{
			Nominal:      nom,
			PaymentDate:  adj,
			AccrualBegin: prevAdjusted,
			AccrualEnd:   adj,
		})
		prevAdjusted = adj
	}

	return periods
}

func (c Context) adjustNominal(nom time.Time, spec ScheduleSpec) time.Time {
	if spec.EndOfMonth {
		nom = EndOfMonthDate(nom)
	}
	return c.Adjust(nom, spec.Convention)
}
