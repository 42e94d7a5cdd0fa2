package loan

import "github.com/gitdigital/founder-loan-service/internal/types"

// VisualTier is the cosmetic representation of a loan's health pushed to the
// metadata service. It has no bearing on any financial record.
type VisualTier string

const (
	TierSeed      VisualTier = "seed"
	TierSprout    VisualTier = "sprout"
	TierGrowth    VisualTier = "growth"
	TierBloom     VisualTier = "bloom"
	TierDiamond   VisualTier = "diamond"
	TierForgiven  VisualTier = "forgiven"
	TierDefaulted VisualTier = "defaulted"
)

func (t VisualTier) String() string {
	return string(t)
}

// ProgressBps returns how much of the principal is repaid, in basis points,
// capped at 100%.
func ProgressBps(a *Account) uint64 {
	if a.Principal == 0 || a.AmountRepaid >= a.Principal {
		return BasisPoints
	}
	// AmountRepaid < Principal so the product fits a 256-bit intermediate and
	// the quotient is below BasisPoints
	progress, err := mulDiv(a.AmountRepaid, BasisPoints, a.Principal)
	if err != nil {
		return 0
	}
	return progress
}

// TierFor maps a loan snapshot to its visual tier. Active loans move up one
// tier per quarter of principal repaid; a high credit score lifts an active
// loan by one tier.
func TierFor(a *Account) VisualTier {
	switch a.Status {
	case types.LoanStatusRepaid:
		return TierDiamond
	case types.LoanStatusForgiven:
		return TierForgiven
	case types.LoanStatusDefaulted:
		return TierDefaulted
	}

	tiers := []VisualTier{TierSeed, TierSprout, TierGrowth, TierBloom}
	idx := int(ProgressBps(a) / 2_500)
	if a.CreditScore >= 750 {
		idx++
	}
	if idx >= len(tiers) {
		idx = len(tiers) - 1
	}
	return tiers[idx]
}
