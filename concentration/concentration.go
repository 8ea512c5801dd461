// Package concentration implements portfolio-level predicate tests,
// the weighted objective function, and the greedy purchase optimizer
// that drive portfolio compliance and construction (§4.5;
// SPEC_FULL.md §C.3, §C.5). StandardTests provides nine built-in
// tests; no other tests are built in, and callers add their own Test
// values to the list they evaluate.
package concentration

import (
	"time"

	"github.com/meenmo-clo/engine/asset"
	"github.com/meenmo-clo/engine/cashflow"
	"github.com/meenmo-clo/engine/money"
	"github.com/meenmo-clo/engine/pool"
	"github.com/meenmo-clo/engine/rating"
)

// Snapshot is the read-only view a test evaluates against: the pool's
// positions, uninvested principal cash, and (for WAL/WARF) each held
// obligation's projected strip. There are no back-pointers between
// these; a test receives everything it needs as explicit arguments.
type Snapshot struct {
	Pool          *pool.Pool
	PrincipalCash money.Amount
	Strips        map[string]*cashflow.Strip
	AsOf          time.Time
	RecoveryTable rating.RecoveryTable
}

// Result is a single test's outcome (§3 "Concentration test result").
type Result struct {
	ID        string
	Name      string
	Threshold float64
	Value     float64
	Pass      bool
	Comment   string
}

// Test is a named portfolio predicate. Ceiling tests pass when Value
// <= Threshold (e.g. single-obligor concentration); floor tests pass
// when Value >= Threshold (e.g. diversity score).
type Test struct {
	ID        string
	Name      string
	Threshold float64
	Ceiling   bool
	Evaluate  func(s Snapshot) (float64, error)
}

func performingPar(s Snapshot) money.Amount {
	total := money.Zero
	for _, pos := range s.Pool.Positions() {
		if pos.Obligation.Flags.DefaultAsset {
			continue
		}
		total = total.Add(pos.ParHeld)
	}
	return total
}

func totalPar(s Snapshot) money.Amount {
	return s.Pool.TotalPar()
}

func shareOf(numerator, denominator money.Amount) float64 {
	if denominator.IsZero() {
		return 0
	}
	return numerator.Float64() / denominator.Float64()
}

func bucketShare(s Snapshot, keyed func(o *asset.Obligation) string, targetKey func(string) bool) float64 {
	byKey := map[string]money.Amount{}
	total := money.Zero
	for _, pos := range s.Pool.Positions() {
		k := keyed(pos.Obligation)
		byKey[k] = byKey[k].Add(pos.ParHeld)
		total = total.Add(pos.ParHeld)
	}
	if total.IsZero() {
		return 0
	}
	var matched money.Amount
	for k, par := range byKey {
		if targetKey(k) {
			matched = matched.Add(par)
		}
	}
	return shareOf(matched, total)
}

func maxBucketShare(s Snapshot, keyed func(o *asset.Obligation) string) float64 {
	byKey := map[string]money.Amount{}
	total := money.Zero
	for _, pos := range s.Pool.Positions() {
		k := keyed(pos.Obligation)
		byKey[k] = byKey[k].Add(pos.ParHeld)
		total = total.Add(pos.ParHeld)
	}
	if total.IsZero() {
		return 0
	}
	max := 0.0
	for _, par := range byKey {
		if sh := shareOf(par, total); sh > max {
			max = sh
		}
	}
	return max
}

// WARF computes the par-weighted average Moody's rating factor across
// held positions (SPEC_FULL.md §C.3).
func WARF(s Snapshot) float64 {
	total := 0.0
	weighted := 0.0
	for _, pos := range s.Pool.Positions() {
		par := pos.ParHeld.Float64()
		total += par
		weighted += par * float64(rating.Factor(pos.Obligation.MoodyRating))
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}

// DiversityScore computes the Moody's industry diversity score across
// held positions' Moody's industry buckets.
func DiversityScore(s Snapshot) float64 {
	byIndustry := map[string]float64{}
	for _, pos := range s.Pool.Positions() {
		byIndustry[pos.Obligation.MoodyIndustry] += pos.ParHeld.Float64()
	}
	return rating.DiversityScore(byIndustry)
}

// WAL computes the par-weighted average life in years across held
// positions' projected strips, weighting each future principal
// payment by its time from AsOf (§4.12).
func WAL(s Snapshot) float64 {
	weighted := 0.0
	total := 0.0
	for _, pos := range s.Pool.Positions() {
		strip, ok := s.Strips[pos.Obligation.ID]
		if !ok {
			continue
		}
		for p := 1; p <= strip.Periods(); p++ {
			principal := strip.SchedPrincipal[p].Add(strip.UnschedPrincipal[p]).Add(strip.Recoveries[p])
			if principal.IsZero() {
				continue
			}
			years := strip.AccrualEnd[p].Sub(s.AsOf).Hours() / (24 * 365.25)
			if years < 0 {
				years = 0
			}
			weighted += principal.Float64() * years
			total += principal.Float64()
		}
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}

// StandardTests returns the representative test battery described by
// §4.5. The set is deliberately open to extension: each entry is a
// plain Test value and callers may append deal-specific tests built
// the same way.
func StandardTests() []Test {
	return []Test{
		{
			ID: "SINGLE_OBLIGOR_MAX", Name: "Single obligor", Threshold: 0.02, Ceiling: true,
			Evaluate: func(s Snapshot) (float64, error) {
				return maxBucketShare(s, func(o *asset.Obligation) string { return o.IssuerID }), nil
			},
		},
		{
			ID: "SP_INDUSTRY_MAX", Name: "Single S&P industry", Threshold: 0.12, Ceiling: true,
			Evaluate: func(s Snapshot) (float64, error) {
				return maxBucketShare(s, func(o *asset.Obligation) string { return o.SPIndustry }), nil
			},
		},
		{
			ID: "B_RATED_BUCKET", Name: "B-rated bucket", Threshold: 0.70, Ceiling: true,
			Evaluate: func(s Snapshot) (float64, error) {
				return bucketShare(s, func(o *asset.Obligation) string { return string(o.MoodyRating) }, func(k string) bool {
					r := rating.MoodyRating(k)
					return rating.Rank(r) >= rating.Rank(rating.B1) && rating.Rank(r) <= rating.Rank(rating.B3)
				}), nil
			},
		},
		{
			ID: "CCC_BUCKET", Name: "CCC-rated", Threshold: 0.075, Ceiling: true,
			Evaluate: func(s Snapshot) (float64, error) {
				return bucketShare(s, func(o *asset.Obligation) string { return string(o.MoodyRating) }, func(k string) bool {
					return rating.IsCCCOrBelow(rating.MoodyRating(k))
				}), nil
			},
		},
		{
			ID: "COV_LITE", Name: "Covenant-lite", Threshold: 0.075, Ceiling: true,
			Evaluate: func(s Snapshot) (float64, error) {
				return shareOf(sumIf(s, func(o *asset.Obligation) bool { return o.Flags.CovLite }), totalPar(s)), nil
			},
		},
		{
			ID: "DEFAULTED", Name: "Defaulted", Threshold: 0.05, Ceiling: true,
			Evaluate: func(s Snapshot) (float64, error) {
				return shareOf(sumIf(s, func(o *asset.Obligation) bool { return o.Flags.DefaultAsset }), totalPar(s)), nil
			},
		},
		{
			ID: "WARF_TEST", Name: "Weighted average rating factor", Threshold: 2900, Ceiling: true,
			Evaluate: func(s Snapshot) (float64, error) { return WARF(s), nil },
		},
		{
			ID: "DIVERSITY_SCORE", Name: "Diversity score", Threshold: 40, Ceiling: false,
			Evaluate: func(s Snapshot) (float64, error) { return DiversityScore(s), nil },
		},
		{
			ID: "WAL_TEST", Name: "Weighted average life", Threshold: 7.5, Ceiling: true,
			Evaluate: func(s Snapshot) (float64, error) { return WAL(s), nil },
		},
	}
}

func sumIf(s Snapshot, pred func(o *asset.Obligation) bool) money.Amount {
	total := money.Zero
	for _, pos := range s.Pool.Positions() {
		if pred(pos.Obligation) {
			total = total.Add(pos.ParHeld)
		}
	}
	return total
}

// Run evaluates every test in tests against s.
func Run(tests []Test, s Snapshot) ([]Result, error) {
	out := make([]Result, 0, len(tests))
	for _, t := range tests {
		v, err := t.Evaluate(s)
		if err != nil {
			return nil, err
		}
		pass := v <= t.Threshold
		if !t.Ceiling {
			pass = v >= t.Threshold
		}
		out = append(out, Result{ID: t.ID, Name: t.Name, Threshold: t.Threshold, Value: v, Pass: pass})
	}
	return out, nil
}

// Weights maps test id -> objective weight (Open Question #2: the
// objective's per-test weighting is exposed as configuration rather
// than a fixed table).
type Weights map[string]float64

// DefaultWeights assigns every StandardTests() entry equal weight 1.0.
func DefaultWeights() Weights {
	w := Weights{}
	for _, t := range StandardTests() {
		w[t.ID] = 1.0
	}
	return w
}

// Objective sums, over failing tests, (value - threshold) * weight,
// signed so the ceiling/floor direction always contributes a positive
// penalty (§4.5).
func Objective(results []Result, w Weights) float64 {
	total := 0.0
	for _, r := range results {
		if r.Pass {
			continue
		}
		weight := w[r.ID]
		if weight == 0 {
			weight = 1.0
		}
		delta := r.Value - r.Threshold
		if delta < 0 {
			delta = -delta
		}
		total += delta * weight
	}
	return total
}
