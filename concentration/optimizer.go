package concentration

import (
	"github.com/meenmo-clo/engine/asset"
	"github.com/meenmo-clo/engine/money"
)

// Candidate is an obligation available for purchase, together with
// the par lot size the optimizer may buy in a single step.
type Candidate struct {
	Obligation *asset.Obligation
	LotPar     money.Amount
}

// Constraints bounds the greedy search (§4.5: "within max_loan_size
// and max_par_amount caps").
type Constraints struct {
	MaxLoanSize  money.Amount // cap on par held per issuer, as reported by currentHeld
	MaxParAmount money.Amount // cap on total pool par
}

// Suggestion is one step of the greedy search's output.
type Suggestion struct {
	Candidate Candidate
	Objective float64 // objective value if this candidate is bought
}

// Optimizer runs the bounded greedy purchase search (SPEC_FULL.md
// §C.5): not a generic solver, a domain-specific search over a fixed
// candidate list that picks whichever cap-compliant purchase most
// reduces the weighted objective.
type Optimizer struct {
	Tests   []Test
	Weights Weights
}

// NewOptimizer builds an Optimizer over the standard test battery and
// default weights.
func NewOptimizer() *Optimizer {
	return &Optimizer{Tests: StandardTests(), Weights: DefaultWeights()}
}

// Suggest scores each candidate's marginal effect on the portfolio
// objective by par-adjusting the position into base.Pool, scoring,
// then reverting — base.Pool is left exactly as it was found.
// Candidates whose lot is cap-compliant and objective-reducing are
// returned best-first; the caller applies the chosen one via
// pool.Buy so the trade is reflected in the cash ledger too.
func (opt *Optimizer) Suggest(base Snapshot, candidates []Candidate, c Constraints, currentHeld func(issuerID string) money.Amount) []Suggestion {
	baseline := opt.score(base)

	suggestions := make([]Suggestion, 0, len(candidates))
	for _, cand := range candidates {
		lot := cand.LotPar
		if !c.MaxLoanSize.IsZero() {
			held := currentHeld(cand.Obligation.IssuerID)
			room := c.MaxLoanSize.Sub(held)
			lot = money.Min(lot, money.MaxZero(room))
		}
		if !c.MaxParAmount.IsZero() {
			room := c.MaxParAmount.Sub(base.Pool.TotalPar())
			lot = money.Min(lot, money.MaxZero(room))
		}
		if lot.IsZero() || lot.IsNegative() {
			continue
		}

		existing := money.Zero
		if p, ok := base.Pool.Position(cand.Obligation.ID); ok {
			existing = p.ParHeld
		}

		base.Pool.ParAdjust(cand.Obligation.ID, existing.Add(lot), cand.Obligation)
		trialObjective := opt.score(base)
		base.Pool.ParAdjust(cand.Obligation.ID, existing, cand.Obligation)

		if trialObjective < baseline {
			suggestions = append(suggestions, Suggestion{Candidate: Candidate{Obligation: cand.Obligation, LotPar: lot}, Objective: trialObjective})
		}
	}

	insertionSort(suggestions)
	return suggestions
}

func (opt *Optimizer) score(s Snapshot) float64 {
	results, err := Run(opt.Tests, s)
	if err != nil {
		return baselinePenalty
	}
	return Objective(results, opt.Weights)
}

// baselinePenalty is returned for a snapshot that fails to evaluate
// (a test predicate error), so a broken candidate is never preferred.
const baselinePenalty = 1e18

func insertionSort(s []Suggestion) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j].Objective < s[j-1].Objective; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
