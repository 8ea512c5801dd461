// Package fees implements the fee ledger for the deal's recurring
// period expenses: trustee, administrative, and senior/junior
// collateral-management fees (§4 table row "Fees").
package fees

import (
	"github.com/shopspring/decimal"

	"github.com/meenmo-clo/engine/money"
)

func decimalOf(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

// Kind distinguishes a flat periodic fee (trustee, admin) from a fee
// computed as a rate on a basis amount (senior/junior management fee
// on collateral balance).
type Kind string

const (
	Flat        Kind = "FLAT"
	RateOnBasis Kind = "RATE_ON_BASIS"
)

// Fee is one named recurring expense in the deal's fee ledger.
type Fee struct {
	ID         string
	Name       string
	Kind       Kind
	Rate       money.Rate   // used when Kind == RateOnBasis
	FlatAmount money.Amount // used when Kind == Flat

	carriedShortfall money.Amount

	// Per-period arrays, 1-indexed like asset.cashflow.
	Due  []money.Amount
	Paid []money.Amount
}

// New allocates a Fee with n periods of due/paid arrays.
func New(id, name string, kind Kind, rate money.Rate, flatAmount money.Amount, n int) *Fee {
	return &Fee{
		ID: id, Name: name, Kind: kind, Rate: rate, FlatAmount: flatAmount,
		Due:  make([]money.Amount, n+1),
		Paid: make([]money.Amount, n+1),
	}
}

// AccrueDue computes period p's amount due, carrying forward any
// unpaid amount from a prior period.
func (f *Fee) AccrueDue(p int, yearFraction float64, basis money.Amount) money.Amount {
	var due money.Amount
	switch f.Kind {
	case Flat:
		due = f.FlatAmount
	case RateOnBasis:
		due = basis.MulRate(f.Rate).Mul(decimalOf(yearFraction))
	}
	due = due.Add(f.carriedShortfall)
	f.carriedShortfall = money.Zero
	if p >= 0 && p < len(f.Due) {
		f.Due[p] = due
	}
	return due
}

// ApplyPayment records the amount the waterfall actually paid toward
// period p's fee, carrying any shortfall into the next period's
// AccrueDue call.
func (f *Fee) ApplyPayment(p int, paid money.Amount) {
	if p < 0 || p >= len(f.Paid) {
		return
	}
	f.Paid[p] = paid
	shortfall := f.Due[p].Sub(paid)
	if shortfall.IsPositive() {
		f.carriedShortfall = f.carriedShortfall.Add(shortfall)
	}
}

// Ledger is the ordered set of fees a deal maintains (trustee, admin,
// senior mgmt, junior mgmt, ...), keyed by id for lookup without a
// back-pointer from Fee to Ledger.
type Ledger struct {
	byID map[string]*Fee
	order []string
}

// NewLedger builds an empty fee ledger.
func NewLedger() *Ledger {
	return &Ledger{byID: make(map[string]*Fee)}
}

// Add registers a fee, preserving insertion order for waterfall
// iteration (§4.8 step ordering: trustee, admin, senior mgmt, ...,
// junior mgmt).
func (l *Ledger) Add(f *Fee) {
	l.byID[f.ID] = f
	l.order = append(l.order, f.ID)
}

// Get returns the fee registered under id.
func (l *Ledger) Get(id string) (*Fee, bool) {
	f, ok := l.byID[id]
	return f, ok
}

// InOrder returns the registered fees in insertion order.
func (l *Ledger) InOrder() []*Fee {
	out := make([]*Fee, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.byID[id])
	}
	return out
}
