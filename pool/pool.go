package pool

import (
	"sort"

	"github.com/meenmo-clo/engine/asset"
	"github.com/meenmo-clo/engine/filter"
	"github.com/meenmo-clo/engine/money"
)

// Position is an owned obligation plus the pool's current par
// position in it (which may differ from the obligation's own
// ParAmount after partial sells).
type Position struct {
	Obligation *asset.Obligation
	ParHeld    money.Amount
}

// Pool is the collateral pool: a map from obligation id to owned
// position, plus the account ledger (§3). There are no back-pointers
// from Obligation to Pool (Design Notes: "owning container holds data
// by id").
type Pool struct {
	positions map[string]*Position
	Accounts  Accounts
	Warnings  []string
}

// New builds an empty pool.
func New() *Pool {
	return &Pool{positions: make(map[string]*Position), Accounts: make(Accounts)}
}

// Buy adds par in an obligation, clamped to a partial fill if cash in
// the named account's principal side is insufficient (§7: "purchase
// with insufficient cash -> partial fill (not raised)").
func (p *Pool) Buy(o *asset.Obligation, par money.Amount, cashAccount AccountKind) money.Amount {
	available := p.Accounts[cashAccount].Principal
	actual := money.Min(par, available)
	if actual.IsNegative() {
		actual = money.Zero
	}

	pos, ok := p.positions[o.ID]
	if !ok {
		pos = &Position{Obligation: o, ParHeld: money.Zero}
		p.positions[o.ID] = pos
	}
	pos.ParHeld = pos.ParHeld.Add(actual)

	acc := p.Accounts[cashAccount]
	acc.Principal = acc.Principal.Sub(actual)
	p.Accounts[cashAccount] = acc

	if actual.LessThan(par) {
		p.Warnings = append(p.Warnings, "partial fill buying "+o.ID)
	}
	return actual
}

// Sell reduces par in an obligation, clamped to the amount held
// (§7: "sell more par than held (tolerated as clamp to available; not
// raised)").
func (p *Pool) Sell(id string, par money.Amount, cashAccount AccountKind) money.Amount {
	pos, ok := p.positions[id]
	if !ok {
		p.Warnings = append(p.Warnings, "sell of unheld obligation "+id)
		return money.Zero
	}

	actual := money.Min(par, pos.ParHeld)
	pos.ParHeld = pos.ParHeld.Sub(actual)
	if pos.ParHeld.IsZero() {
		delete(p.positions, id)
	}

	if actual.LessThan(par) {
		p.Warnings = append(p.Warnings, "partial fill selling "+id)
	}

	acc := p.Accounts[cashAccount]
	acc.Principal = acc.Principal.Add(actual)
	p.Accounts[cashAccount] = acc
	return actual
}

// ParAdjust sets a position's held par directly (e.g. trade break
// correction, or an optimizer's trial probe), without touching cash
// accounts. If id is not currently held, o supplies the obligation to
// register the new position with; o is ignored when id is already
// held.
func (p *Pool) ParAdjust(id string, newPar money.Amount, o *asset.Obligation) {
	pos, ok := p.positions[id]
	if !ok {
		if newPar.IsZero() || o == nil {
			return
		}
		pos = &Position{Obligation: o, ParHeld: money.Zero}
		p.positions[id] = pos
	}
	pos.ParHeld = newPar
	if newPar.IsZero() {
		delete(p.positions, id)
	}
}

// Clone returns an independent copy of the pool: positions and
// accounts are copied so mutating the clone (a scenario run, a
// Monte-Carlo path) never affects the original (§5: "each run holds
// an independent mutable pool copy"). Obligation pointers are shared,
// since obligations are immutable (§3).
func (p *Pool) Clone() *Pool {
	clone := &Pool{
		positions: make(map[string]*Position, len(p.positions)),
		Accounts:  make(Accounts, len(p.Accounts)),
	}
	for id, pos := range p.positions {
		clone.positions[id] = &Position{Obligation: pos.Obligation, ParHeld: pos.ParHeld}
	}
	for kind, acc := range p.Accounts {
		clone.Accounts[kind] = acc
	}
	clone.Warnings = append([]string(nil), p.Warnings...)
	return clone
}

// Position returns the position for id, if held.
func (p *Pool) Position(id string) (*Position, bool) {
	pos, ok := p.positions[id]
	return pos, ok
}

// Positions returns all held positions ordered by obligation id for
// deterministic iteration.
func (p *Pool) Positions() []*Position {
	ids := make([]string, 0, len(p.positions))
	for id := range p.positions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*Position, len(ids))
	for i, id := range ids {
		out[i] = p.positions[id]
	}
	return out
}

// TotalPar sums the par held across all positions.
func (p *Pool) TotalPar() money.Amount {
	total := money.Zero
	for _, pos := range p.Positions() {
		total = total.Add(pos.ParHeld)
	}
	return total
}

// Filter returns the positions whose obligation satisfies pred.
func (p *Pool) Filter(pred *filter.Predicate) ([]*Position, error) {
	var out []*Position
	for _, pos := range p.Positions() {
		ok, err := filter.Eval(pred, asset.FieldSource{Obligation: pos.Obligation})
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, pos)
		}
	}
	return out, nil
}

// ParSum sums ParHeld over a filtered subset (helper for
// concentration tests: single-obligor, industry bucket, etc.).
func ParSum(positions []*Position) money.Amount {
	total := money.Zero
	for _, pos := range positions {
		total = total.Add(pos.ParHeld)
	}
	return total
}
