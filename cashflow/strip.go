// Package cashflow defines the aligned per-period cash-flow strip
// container shared by assets, reinvestment strips, and tranches (§3).
package cashflow

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meenmo-clo/engine/money"
)

var oneMillion = decimal.NewFromInt(1_000_000)

// Strip holds the aligned per-period arrays for one obligation or
// reinvestment lot (§3). All arrays share length N+1, index 0 being
// the unused/seed entry so that external period numbering can start
// at 1 (Design Notes: "0-based arrays internally; external-facing
// period numbering starts at 1").
type Strip struct {
	PaymentDate   []time.Time
	AccrualBegin  []time.Time
	AccrualEnd    []time.Time

	BegBalance     []money.Amount
	Default        []money.Amount
	MVDefault      []money.Amount
	Interest       []money.Amount
	SchedPrincipal []money.Amount
	UnschedPrincipal []money.Amount
	Recoveries     []money.Amount
	NetLoss        []money.Amount
	Sold           []money.Amount
	EndBalance     []money.Amount
	DefaultBalance []money.Amount
	MVDefaultBalance []money.Amount
}

// New allocates a Strip with n periods plus the unused index-0 slot.
func New(n int) *Strip {
	alloc := func() []money.Amount { return make([]money.Amount, n+1) }
	return &Strip{
		PaymentDate:      make([]time.Time, n+1),
		AccrualBegin:     make([]time.Time, n+1),
		AccrualEnd:       make([]time.Time, n+1),
		BegBalance:       alloc(),
		Default:          alloc(),
		MVDefault:        alloc(),
		Interest:         alloc(),
		SchedPrincipal:   alloc(),
		UnschedPrincipal: alloc(),
		Recoveries:       alloc(),
		NetLoss:          alloc(),
		Sold:             alloc(),
		EndBalance:       alloc(),
		DefaultBalance:   alloc(),
		MVDefaultBalance: alloc(),
	}
}

// Periods returns the number of periods (excluding the unused index
// 0 slot).
func (s *Strip) Periods() int {
	if s == nil {
		return 0
	}
	return len(s.BegBalance) - 1
}

// InterestProceeds returns interest[p] (§4.4 get_proceeds("INTEREST")).
func (s *Strip) InterestProceeds(p int) money.Amount {
	return s.Interest[p]
}

// PrincipalProceeds returns sched_principal[p] + unsched_principal[p]
// + recoveries[p] (§4.4 get_proceeds("PRINCIPAL")).
func (s *Strip) PrincipalProceeds(p int) money.Amount {
	return s.SchedPrincipal[p].Add(s.UnschedPrincipal[p]).Add(s.Recoveries[p])
}

// Liquidate sells the strip's remaining position at period p at
// price (fraction of par), zeroing every future period so later
// get_proceeds/roll_forward calls see nothing further from this strip
// (§4.4 liquidate(price)).
func (s *Strip) Liquidate(p int, price float64) (sold money.Amount, loss money.Amount) {
	priceDecimal := decimal.NewFromFloat(price)
	oneMinusPrice := decimal.NewFromFloat(1 - price)

	sold = s.EndBalance[p].Mul(priceDecimal).Add(s.MVDefaultBalance[p])
	loss = s.EndBalance[p].Mul(oneMinusPrice).Add(s.DefaultBalance[p].Sub(s.MVDefaultBalance[p]))

	for q := p + 1; q < len(s.EndBalance); q++ {
		s.BegBalance[q] = money.Zero
		s.Default[q] = money.Zero
		s.MVDefault[q] = money.Zero
		s.Interest[q] = money.Zero
		s.SchedPrincipal[q] = money.Zero
		s.UnschedPrincipal[q] = money.Zero
		s.Recoveries[q] = money.Zero
		s.NetLoss[q] = money.Zero
		s.EndBalance[q] = money.Zero
		s.DefaultBalance[q] = money.Zero
		s.MVDefaultBalance[q] = money.Zero
	}
	s.EndBalance[p] = money.Zero
	s.DefaultBalance[p] = money.Zero
	return sold, loss
}

// CheckInvariant verifies end_balance_p = beg_balance_p - default_p -
// sched_p - unsched_p for period p, within the §7 tolerance of 1 cent
// per 1e6 of par (passed as parBasis), never less than 1 cent.
func (s *Strip) CheckInvariant(p int, parBasis money.Amount) bool {
	expected := s.BegBalance[p].Sub(s.Default[p]).Sub(s.SchedPrincipal[p]).Sub(s.UnschedPrincipal[p])
	diff := expected.Sub(s.EndBalance[p])
	if diff.IsNegative() {
		diff = diff.Neg()
	}
	tolerance := money.Max(parBasis.Div(oneMillion).Mul(decimal.NewFromFloat(0.01)), money.NewAmount(0.01))
	return !diff.GreaterThan(tolerance)
}
