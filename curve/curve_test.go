package curve

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo-clo/engine/errs"
)

func TestCurve_SpotRate_ReturnsInputTenorsApproximately(t *testing.T) {
	c := New("test")
	analysis := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	err := c.Setup(analysis, map[int]float64{3: 0.02, 6: 0.025, 12: 0.03})
	require.NoError(t, err)

	s3, err := c.SpotRate(analysis, 3)
	require.NoError(t, err)
	assert.InDelta(t, 0.02, s3, 1e-9)

	s6, err := c.SpotRate(analysis, 6)
	require.NoError(t, err)
	assert.InDelta(t, 0.025, s6, 1e-9)

	s9, err := c.SpotRate(analysis, 9)
	require.NoError(t, err)
	assert.InDelta(t, 0.0275, s9, 1e-3)
}

func TestCurve_NotSetup_ReturnsStateError(t *testing.T) {
	c := New("test")
	_, err := c.SpotRate(time.Now(), 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrState)
}

func TestCurve_OutOfRange_NMonthsLessThanOne(t *testing.T) {
	c := New("test")
	analysis := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, c.Setup(analysis, map[int]float64{3: 0.02}))

	_, err := c.SpotRate(analysis, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestCurve_ZeroRate_InterpolatesBetweenWholeMonths(t *testing.T) {
	c := New("test")
	analysis := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, c.Setup(analysis, map[int]float64{3: 0.02, 6: 0.025, 12: 0.03}))

	z, err := c.ZeroRate(analysis, analysis.AddDate(0, 0, 135)) // ~4.5 months
	require.NoError(t, err)
	assert.Greater(t, z, 0.02)
	assert.Less(t, z, 0.026)
}
