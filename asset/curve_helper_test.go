package asset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meenmo-clo/engine/curve"
)

func newFlatCurve(t *testing.T, rate float64) *curve.Curve {
	t.Helper()
	c := curve.New("test")
	analysis := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, c.Setup(analysis, map[int]float64{1: rate, 12: rate}))
	return c
}
