package loan

import (
	"github.com/holiman/uint256"
)

// Score computes the credit score a loan earns for a payment of
// paymentAmount made at now. loan and profile must be the state before the
// payment is applied. The result is capped at MaxCreditScore and is never
// lower than the loan's current score.
func Score(loan *Account, profile *Profile, paymentAmount uint64, now int64) (uint16, error) {
	if loan.Principal == 0 {
		return 0, ErrDivideByZero
	}

	// every full 1% of principal repaid in one payment adds one point
	ratio, err := mulDiv(paymentAmount, 1000, loan.Principal)
	if err != nil {
		return 0, err
	}

	score := uint256.NewInt(uint64(loan.CreditScore))
	score, err = addWide(score, ratio/10)
	if err != nil {
		return 0, err
	}

	if consistentPayer(loan, now) {
		if score, err = addWide(score, ConsistencyBonus); err != nil {
			return 0, err
		}
	}

	history, overflow := new(uint256.Int).MulOverflow(
		uint256.NewInt(uint64(profile.CompletedLoans)),
		uint256.NewInt(HistoryBonusPerLoan),
	)
	if overflow {
		return 0, ErrOverflow
	}
	if score, overflow = new(uint256.Int).AddOverflow(score, history); overflow {
		return 0, ErrOverflow
	}

	ceiling := uint256.NewInt(uint64(MaxCreditScore))
	if score.Gt(ceiling) {
		return MaxCreditScore, nil
	}
	return uint16(score.Uint64()), nil
}

// consistentPayer grants the bonus only when a previous payment is on record
// and happened inside the consistency window.
func consistentPayer(loan *Account, now int64) bool {
	if loan.PaymentsMade == 0 || loan.LastPaymentAt == nil {
		return false
	}
	return now-*loan.LastPaymentAt < ConsistencyWindowSeconds
}

// ForgivenessScore is the flat reward a loan receives when it is forgiven.
func ForgivenessScore(current uint16) uint16 {
	if current >= MaxCreditScore-ForgivenessScoreBonus {
		return MaxCreditScore
	}
	return current + ForgivenessScoreBonus
}

func addWide(x *uint256.Int, y uint64) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(x, uint256.NewInt(y))
	if overflow {
		return nil, ErrOverflow
	}
	return sum, nil
}
