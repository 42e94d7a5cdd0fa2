package loan

import (
	"testing"

	"github.com/gitdigital/founder-loan-service/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestTierFor(t *testing.T) {
	active := func(repaid uint64, score uint16) *Account {
		return &Account{Principal: 100_000_000, AmountRepaid: repaid, CreditScore: score, Status: types.LoanStatusActive}
	}

	assert.Equal(t, TierSeed, TierFor(active(0, 300)))
	assert.Equal(t, TierSprout, TierFor(active(25_000_000, 300)))
	assert.Equal(t, TierGrowth, TierFor(active(50_000_000, 300)))
	assert.Equal(t, TierBloom, TierFor(active(99_000_000, 300)))
	assert.Equal(t, TierSprout, TierFor(active(0, 750)))
	assert.Equal(t, TierBloom, TierFor(active(99_000_000, 800)))

	assert.Equal(t, TierDiamond, TierFor(&Account{Status: types.LoanStatusRepaid}))
	assert.Equal(t, TierForgiven, TierFor(&Account{Status: types.LoanStatusForgiven}))
	assert.Equal(t, TierDefaulted, TierFor(&Account{Status: types.LoanStatusDefaulted}))
}

func TestProgressBps(t *testing.T) {
	assert.Equal(t, uint64(0), ProgressBps(&Account{Principal: 100}))
	assert.Equal(t, uint64(3_333), ProgressBps(&Account{Principal: 3, AmountRepaid: 1}))
	assert.Equal(t, uint64(BasisPoints), ProgressBps(&Account{Principal: 100, AmountRepaid: 200}))
}
