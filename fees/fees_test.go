package fees

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meenmo-clo/engine/money"
)

func TestAccrueDue_RateOnBasis(t *testing.T) {
	f := New("senior-mgmt", "Senior management fee", RateOnBasis, money.NewRate(0.004), money.Zero, 2)
	due := f.AccrueDue(1, 0.25, money.NewAmount(500_000_000))
	assert.InDelta(t, 500_000_000*0.004*0.25, due.Float64(), 0.01)
}

func TestApplyPayment_ShortfallCarriesIntoNextAccrual(t *testing.T) {
	f := New("trustee", "Trustee fee", Flat, money.ZeroRate, money.NewAmount(10_000), 2)
	f.AccrueDue(1, 0.25, money.Zero)
	f.ApplyPayment(1, money.NewAmount(6_000))

	due2 := f.AccrueDue(2, 0.25, money.Zero)
	assert.InDelta(t, 10_000+4_000, due2.Float64(), 0.01)
}

func TestLedger_PreservesInsertionOrder(t *testing.T) {
	l := NewLedger()
	l.Add(New("trustee", "Trustee", Flat, money.ZeroRate, money.NewAmount(1), 1))
	l.Add(New("admin", "Admin", Flat, money.ZeroRate, money.NewAmount(1), 1))

	ids := make([]string, 0)
	for _, f := range l.InOrder() {
		ids = append(ids, f.ID)
	}
	assert.Equal(t, []string{"trustee", "admin"}, ids)
}
