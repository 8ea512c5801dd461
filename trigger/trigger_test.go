package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meenmo-clo/engine/money"
)

func TestOCRatio_CCCHaircutReducesNumerator(t *testing.T) {
	ratio := OCRatio(money.NewAmount(900), money.NewAmount(50), money.NewAmount(20), money.NewAmount(70), money.NewAmount(800))
	assert.InDelta(t, (900.0+50+20-70)/800, ratio, 1e-9)
}

func TestEvaluate_BreachesBelowThreshold(t *testing.T) {
	tr := New("class-a-oc", OC, 1.20, 0)
	assert.True(t, tr.Evaluate(1.10))
	assert.False(t, tr.Evaluate(1.30))
}

func TestCureAmount_ZeroWhenAlreadyCompliant(t *testing.T) {
	amt := CureAmount(1.30, 1.20, money.NewAmount(1000), money.NewAmount(500))
	assert.True(t, amt.IsZero())
}

func TestCureAmount_ClampsToAvailable(t *testing.T) {
	amt := CureAmount(1.00, 1.20, money.NewAmount(1000), money.NewAmount(50))
	assert.InDelta(t, 50, amt.Float64(), 0.01)
}
