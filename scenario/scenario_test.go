package scenario

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo-clo/engine/asset"
	"github.com/meenmo-clo/engine/concentration"
	"github.com/meenmo-clo/engine/money"
	"github.com/meenmo-clo/engine/pool"
	"github.com/meenmo-clo/engine/rating"
)

func obligation(id, issuer string, par float64, r rating.MoodyRating, industry string) *asset.Obligation {
	return &asset.Obligation{
		ID: id, IssuerID: issuer,
		ParAmount:     money.NewAmount(par),
		MoodyRating:   r,
		MoodyIndustry: industry,
		SPIndustry:    industry,
	}
}

func buildBase(t *testing.T) concentration.Snapshot {
	t.Helper()
	p := pool.New()
	p.Accounts.Credit(pool.Collection, money.Zero, money.NewAmount(1_000_000_000))
	p.Buy(obligation("1", "issuer-a", 300, rating.B1, "tech"), money.NewAmount(300), pool.Collection)
	p.Buy(obligation("2", "issuer-b", 700, rating.B1, "retail"), money.NewAmount(700), pool.Collection)
	return concentration.Snapshot{Pool: p, AsOf: time.Now(), RecoveryTable: rating.DefaultRecoveryTable()}
}

func TestRun_SwapAssetChangesObjective(t *testing.T) {
	base := buildBase(t)
	r := NewRunner(concentration.StandardTests(), concentration.DefaultWeights())

	mutations := []Mutation{
		{
			ID: "swap-1-for-3", Kind: SwapAsset,
			SwapOutID: "1",
			SwapIn:    obligation("3", "issuer-c", 300, rating.B1, "retail"),
		},
	}

	results, err := r.Run(context.Background(), base, mutations)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "swap-1-for-3", results[0].MutationID)
	// Concentrating issuer-b's "retail" industry further should not
	// improve the objective relative to the diversified base.
	assert.GreaterOrEqual(t, results[0].Objective, results[0].BaseObjective-1e-9)

	// base must be untouched by the mutation.
	_, stillHeld := base.Pool.Position("1")
	assert.True(t, stillHeld)
	_, swappedIn := base.Pool.Position("3")
	assert.False(t, swappedIn)
}

func TestRun_RatingShiftWorsensWARF(t *testing.T) {
	base := buildBase(t)
	r := NewRunner(concentration.StandardTests(), concentration.DefaultWeights())

	mutations := []Mutation{
		{ID: "downgrade-all", Kind: RatingShift, Notches: -6},
	}

	results, err := r.Run(context.Background(), base, mutations)
	require.NoError(t, err)
	require.Len(t, results, 1)

	var baseWARF, shiftedWARF float64
	baseResults, err := concentration.Run(concentration.StandardTests(), base)
	require.NoError(t, err)
	for _, res := range baseResults {
		if res.ID == "WARF_TEST" {
			baseWARF = res.Value
		}
	}
	for _, res := range results[0].Tests {
		if res.ID == "WARF_TEST" {
			shiftedWARF = res.Value
		}
	}
	assert.Greater(t, shiftedWARF, baseWARF, "downgrading every obligation should raise WARF")

	pos, held := base.Pool.Position("1")
	require.True(t, held)
	assert.Equal(t, rating.B1, pos.Obligation.MoodyRating, "base position must not be mutated")
}

func TestRun_CancelledContextStopsBeforeFirstMutation(t *testing.T) {
	base := buildBase(t)
	r := NewRunner(concentration.StandardTests(), concentration.DefaultWeights())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := r.Run(ctx, base, []Mutation{{ID: "never-runs", Kind: RecoveryBump}})
	assert.Nil(t, results)
	require.Error(t, err)
}
