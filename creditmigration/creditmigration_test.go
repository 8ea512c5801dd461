package creditmigration

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/meenmo-clo/engine/rating"
)

func identityCorrelation(n int) *mat.SymDense {
	m := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		m.SetSym(i, i, 1)
	}
	return m
}

func TestNew_RejectsDimensionMismatch(t *testing.T) {
	_, err := New(Config{
		ObligationIDs: []string{"a", "b"},
		Correlation:   identityCorrelation(3),
		Matrix:        rating.DefaultTransitionMatrix(),
		Periods:       1,
	})
	assert.Error(t, err)
}

func TestRunPath_DeterministicWithSeededSource(t *testing.T) {
	cfg := Config{
		ObligationIDs: []string{"a", "b"},
		StartRating:   map[string]rating.MoodyRating{"a": rating.Caa1, "b": rating.Baa2},
		Correlation:   identityCorrelation(2),
		Matrix:        rating.DefaultTransitionMatrix(),
		Periods:       12,
		Rand:          rand.New(rand.NewSource(42)),
	}
	e1, err := New(cfg)
	require.NoError(t, err)
	path1, err := e1.RunPath()
	require.NoError(t, err)

	cfg.Rand = rand.New(rand.NewSource(42))
	e2, err := New(cfg)
	require.NoError(t, err)
	path2, err := e2.RunPath()
	require.NoError(t, err)

	assert.Equal(t, path1.TerminalRating, path2.TerminalRating)
}

func TestRunPaths_DefaultRateIsBounded(t *testing.T) {
	cfg := Config{
		ObligationIDs: []string{"a"},
		StartRating:   map[string]rating.MoodyRating{"a": rating.Caa1},
		Correlation:   identityCorrelation(1),
		Matrix:        rating.DefaultTransitionMatrix(),
		Periods:       24,
		Rand:          rand.New(rand.NewSource(7)),
	}
	e, err := New(cfg)
	require.NoError(t, err)

	paths, err := e.RunPaths(200)
	require.NoError(t, err)

	rate := DefaultRate(paths, "a")
	assert.GreaterOrEqual(t, rate, 0.0)
	assert.LessOrEqual(t, rate, 1.0)
}

func buildMCEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(Config{
		ObligationIDs: []string{"a", "b", "c"},
		StartRating: map[string]rating.MoodyRating{
			"a": rating.Caa1, "b": rating.Baa2, "c": rating.B1,
		},
		Correlation: identityCorrelation(3),
		Matrix:      rating.DefaultTransitionMatrix(),
		Periods:     20,
	})
	require.NoError(t, err)
	return e
}

func TestRunPathsMonteCarlo_DeterministicAcrossWorkerCounts(t *testing.T) {
	e := buildMCEngine(t)

	results1, err := e.RunPathsMonteCarlo(context.Background(), 50, 12, 1)
	require.NoError(t, err)
	results4, err := e.RunPathsMonteCarlo(context.Background(), 50, 12, 4)
	require.NoError(t, err)

	require.Equal(t, len(results1), len(results4))
	for i := range results1 {
		assert.Equal(t, results1[i].TerminalRating, results4[i].TerminalRating)
		assert.Equal(t, results1[i].Transitions, results4[i].Transitions)
	}
}

func TestRunPathsMonteCarlo_CancelledReturnsNoPartialResult(t *testing.T) {
	e := buildMCEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := e.RunPathsMonteCarlo(ctx, 100, 1, 2)
	require.Error(t, err)
	assert.Nil(t, results)
}
