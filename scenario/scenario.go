// Package scenario runs a base portfolio snapshot through a set of
// what-if mutations — asset substitution, a sector recovery bump, a
// rating shift — and reports how the concentration objective moves
// under each one (§1 "what-if analysis"; SPEC_FULL.md §C.4). Each
// mutation is evaluated against an independent clone of the base
// pool, never the shared original (§5: "each run holds an
// independent mutable pool copy").
package scenario

import (
	"context"

	"github.com/meenmo-clo/engine/asset"
	"github.com/meenmo-clo/engine/cashflow"
	"github.com/meenmo-clo/engine/concentration"
	"github.com/meenmo-clo/engine/errs"
	"github.com/meenmo-clo/engine/money"
	"github.com/meenmo-clo/engine/rating"
)

// Kind enumerates the supported mutation shapes.
type Kind string

const (
	SwapAsset     Kind = "SWAP_ASSET"
	RecoveryBump  Kind = "RECOVERY_BUMP"
	RatingShift   Kind = "RATING_SHIFT"
)

// Mutation describes one what-if applied to a base snapshot. Only the
// fields relevant to Kind are read.
type Mutation struct {
	ID   string
	Kind Kind

	// SwapAsset: remove SwapOutID from the pool (if held) and add
	// SwapIn at its own ParAmount, keyed by SwapIn's strip in
	// SwapInStrip.
	SwapOutID   string
	SwapIn      *asset.Obligation
	SwapInStrip *cashflow.Strip

	// RecoveryBump / RatingShift: scope to one Moody's industry
	// bucket (empty string means "every held obligation").
	Industry string

	// RecoveryBump: additive delta applied to RecoveryRate; the
	// result is clamped to [0, 1].
	RecoveryDelta float64

	// RatingShift: notches applied via rating.Notch (positive =
	// upgrade, negative = downgrade) to MoodyRating.
	Notches int
}

// Result is one mutation's outcome: the concentration test results
// and objective value against the mutated snapshot, plus the delta
// from the base objective.
type Result struct {
	MutationID    string
	BaseObjective float64
	Objective     float64
	Delta         float64
	Tests         []concentration.Result
}

// Runner evaluates mutations against a fixed set of concentration
// tests and weights (§4.5).
type Runner struct {
	Tests   []concentration.Test
	Weights concentration.Weights
}

// NewRunner builds a Runner over tests scored with weights.
func NewRunner(tests []concentration.Test, weights concentration.Weights) *Runner {
	return &Runner{Tests: tests, Weights: weights}
}

// Run evaluates every mutation against an independent clone of base,
// returning one Result per mutation in order. Scenarios are
// independent runs (§5 "Scenario analysis": "each scenario is an
// independent run... embarrassingly parallel"), so nothing here
// prevents a caller from instead fanning mutations out across a
// worker pool, each call scoring its own clone of base. ctx is
// checked between mutations; a cancelled run returns an error of kind
// errs.Cancelled without any partial Result mixed into a later one
// (§5 cancellation semantics).
func (r *Runner) Run(ctx context.Context, base concentration.Snapshot, mutations []Mutation) ([]Result, error) {
	const op = "scenario.Run"

	baseResults, err := concentration.Run(r.Tests, base)
	if err != nil {
		return nil, err
	}
	baseObjective := concentration.Objective(baseResults, r.Weights)

	out := make([]Result, 0, len(mutations))
	for _, m := range mutations {
		select {
		case <-ctx.Done():
			return nil, errs.New(errs.Cancelled, op, "scenario run cancelled")
		default:
		}

		mutated, err := apply(base, m)
		if err != nil {
			return nil, err
		}
		results, err := concentration.Run(r.Tests, mutated)
		if err != nil {
			return nil, err
		}
		objective := concentration.Objective(results, r.Weights)
		out = append(out, Result{
			MutationID:    m.ID,
			BaseObjective: baseObjective,
			Objective:     objective,
			Delta:         objective - baseObjective,
			Tests:         results,
		})
	}
	return out, nil
}

// apply clones base's pool and strip map and applies m, leaving base
// untouched.
func apply(base concentration.Snapshot, m Mutation) (concentration.Snapshot, error) {
	const op = "scenario.apply"

	clonedPool := base.Pool.Clone()
	clonedStrips := make(map[string]*cashflow.Strip, len(base.Strips))
	for id, s := range base.Strips {
		clonedStrips[id] = s
	}
	mutated := concentration.Snapshot{
		Pool: clonedPool, PrincipalCash: base.PrincipalCash,
		Strips: clonedStrips, AsOf: base.AsOf, RecoveryTable: base.RecoveryTable,
	}

	switch m.Kind {
	case SwapAsset:
		applySwap(mutated, m)
	case RecoveryBump:
		applyRecoveryBump(mutated, m)
	case RatingShift:
		applyRatingShift(mutated, m)
	default:
		return concentration.Snapshot{}, errs.New(errs.Validation, op, "unknown mutation kind "+string(m.Kind))
	}
	return mutated, nil
}

func applySwap(s concentration.Snapshot, m Mutation) {
	if m.SwapOutID != "" {
		if _, ok := s.Pool.Position(m.SwapOutID); ok {
			s.Pool.ParAdjust(m.SwapOutID, money.Zero, nil)
			delete(s.Strips, m.SwapOutID)
		}
	}
	if m.SwapIn != nil {
		s.Pool.ParAdjust(m.SwapIn.ID, m.SwapIn.ParAmount, m.SwapIn)
		if m.SwapInStrip != nil {
			s.Strips[m.SwapIn.ID] = m.SwapInStrip
		}
	}
}

func matchesIndustry(o *asset.Obligation, industry string) bool {
	return industry == "" || o.MoodyIndustry == industry
}

// replaceObligation swaps the obligation backing an existing
// position. ParAdjust ignores its obligation argument when the id is
// already held (it only updates par), so the replacement has to clear
// the position first and re-seed it with the mutated obligation.
func replaceObligation(s concentration.Snapshot, id string, par money.Amount, mutated *asset.Obligation) {
	s.Pool.ParAdjust(id, money.Zero, nil)
	s.Pool.ParAdjust(id, par, mutated)
}

func applyRecoveryBump(s concentration.Snapshot, m Mutation) {
	for _, pos := range s.Pool.Positions() {
		o := pos.Obligation
		if !matchesIndustry(o, m.Industry) {
			continue
		}
		bumped := *o
		rate := o.EffectiveRecoveryRate(s.RecoveryTable) + m.RecoveryDelta
		if rate < 0 {
			rate = 0
		}
		if rate > 1 {
			rate = 1
		}
		bumped.RecoveryRate = &rate
		replaceObligation(s, o.ID, pos.ParHeld, &bumped)
	}
}

func applyRatingShift(s concentration.Snapshot, m Mutation) {
	for _, pos := range s.Pool.Positions() {
		o := pos.Obligation
		if !matchesIndustry(o, m.Industry) {
			continue
		}
		shifted := *o
		shifted.MoodyRating = rating.Notch(o.MoodyRating, m.Notches)
		replaceObligation(s, o.ID, pos.ParHeld, &shifted)
	}
}
