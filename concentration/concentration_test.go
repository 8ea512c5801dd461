package concentration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo-clo/engine/asset"
	"github.com/meenmo-clo/engine/money"
	"github.com/meenmo-clo/engine/pool"
	"github.com/meenmo-clo/engine/rating"
)

func obligation(id, issuer string, par float64, r rating.MoodyRating, industry string, covLite, defaulted bool) *asset.Obligation {
	return &asset.Obligation{
		ID: id, IssuerID: issuer,
		ParAmount:     money.NewAmount(par),
		MoodyRating:   r,
		MoodyIndustry: industry,
		SPIndustry:    industry,
		Flags:         asset.Flags{CovLite: covLite, DefaultAsset: defaulted},
	}
}

func buildPool(t *testing.T, obligations ...*asset.Obligation) *pool.Pool {
	t.Helper()
	p := pool.New()
	p.Accounts.Credit(pool.Collection, money.Zero, money.NewAmount(1_000_000_000))
	for _, o := range obligations {
		p.Buy(o, o.ParAmount, pool.Collection)
	}
	return p
}

func TestSingleObligorMax_FlagsConcentration(t *testing.T) {
	p := buildPool(t,
		obligation("1", "issuer-a", 30, rating.B1, "tech", false, false),
		obligation("2", "issuer-b", 70, rating.B1, "tech", false, false),
	)
	snap := Snapshot{Pool: p, AsOf: time.Now()}
	tests := StandardTests()
	results, err := Run(tests, snap)
	require.NoError(t, err)

	var obligorResult Result
	for _, r := range results {
		if r.ID == "SINGLE_OBLIGOR_MAX" {
			obligorResult = r
		}
	}
	assert.InDelta(t, 0.70, obligorResult.Value, 1e-9)
	assert.False(t, obligorResult.Pass)
}

func TestCCCBucket_PassesWhenBelowThreshold(t *testing.T) {
	p := buildPool(t,
		obligation("1", "issuer-a", 95, rating.B1, "tech", false, false),
		obligation("2", "issuer-b", 5, rating.Caa1, "tech", false, false),
	)
	snap := Snapshot{Pool: p, AsOf: time.Now()}
	results, err := Run(StandardTests(), snap)
	require.NoError(t, err)

	for _, r := range results {
		if r.ID == "CCC_BUCKET" {
			assert.True(t, r.Pass)
		}
	}
}

func TestObjective_SumsOnlyFailingTests(t *testing.T) {
	results := []Result{
		{ID: "A", Threshold: 0.02, Value: 0.10, Pass: false},
		{ID: "B", Threshold: 0.12, Value: 0.05, Pass: true},
	}
	w := Weights{"A": 2.0, "B": 1.0}
	assert.InDelta(t, 0.16, Objective(results, w), 1e-9)
}

func TestWARF_ParWeightedAverage(t *testing.T) {
	p := buildPool(t,
		obligation("1", "issuer-a", 50, rating.Aaa, "tech", false, false),
		obligation("2", "issuer-b", 50, rating.Caa1, "tech", false, false),
	)
	snap := Snapshot{Pool: p}
	warf := WARF(snap)
	assert.InDelta(t, float64(rating.Factor(rating.Aaa)+rating.Factor(rating.Caa1))/2, warf, 1e-6)
}

func TestOptimizer_SuggestsImprovingPurchaseAndRestoresPool(t *testing.T) {
	p := buildPool(t,
		obligation("1", "issuer-a", 95, rating.B1, "tech", false, false),
		obligation("2", "issuer-b", 5, rating.Caa1, "tech", false, false),
	)
	snap := Snapshot{Pool: p, AsOf: time.Now()}
	candidate := obligation("3", "issuer-c", 50, rating.Aaa, "healthcare", false, false)

	opt := NewOptimizer()
	before := p.TotalPar()
	suggestions := opt.Suggest(snap, []Candidate{{Obligation: candidate, LotPar: money.NewAmount(50)}}, Constraints{}, func(string) money.Amount { return money.Zero })

	assert.True(t, p.TotalPar().Cmp(before) == 0, "pool must be restored after probing")
	require.NotEmpty(t, suggestions)
	assert.Equal(t, "3", suggestions[0].Candidate.Obligation.ID)
}
