package services

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/gitdigital/founder-loan-service/internal/loan"
	"github.com/gitdigital/founder-loan-service/internal/types"
)

// usdcUnit is the number of smallest units in one USDC.
const usdcUnit = 1_000_000

// LedgerReport summarizes the recorded events of one loan, or of every loan.
type LedgerReport struct {
	LoanID                   *uint64            `json:"loan_id,omitempty"`
	TotalPayments            int                `json:"total_payments"`
	TotalPrincipalRepaid     sdkmath.Int        `json:"total_principal_repaid"`
	TotalForgiven            sdkmath.Int        `json:"total_forgiven"`
	AverageCreditScoreChange sdkmath.LegacyDec  `json:"average_credit_score_change"`
	OutstandingBalance       sdkmath.Int        `json:"outstanding_balance"`
	Entries                  []loan.LedgerEntry `json:"entries"`
}

// LedgerReport builds the report from the events outbox. Amounts are summed
// with arbitrary precision since totals across loans may exceed 64 bits.
func (s *Service) LedgerReport(ctx context.Context, loanID *uint64) (*LedgerReport, *types.Error) {
	events, err := s.GetLoanEvents(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return BuildLedgerReport(loanID, events), nil
}

func BuildLedgerReport(loanID *uint64, events []loan.Event) *LedgerReport {
	report := &LedgerReport{
		LoanID:                   loanID,
		TotalPrincipalRepaid:     sdkmath.ZeroInt(),
		TotalForgiven:            sdkmath.ZeroInt(),
		AverageCreditScoreChange: sdkmath.LegacyZeroDec(),
		OutstandingBalance:       sdkmath.ZeroInt(),
		Entries:                  make([]loan.LedgerEntry, 0, len(events)),
	}

	// outstanding principal per loan, floored at zero when paid off
	outstanding := make(map[uint64]sdkmath.Int)
	scoreChange := sdkmath.ZeroInt()

	for _, event := range events {
		entry := loan.LedgerEntryFor(event)
		report.Entries = append(report.Entries, entry)
		amount := sdkmath.NewIntFromUint64(entry.Amount)

		switch entry.TransactionType {
		case loan.LedgerLoanCreated:
			outstanding[entry.LoanID] = amount
		case loan.LedgerPaymentReceived:
			report.TotalPayments++
			report.TotalPrincipalRepaid = report.TotalPrincipalRepaid.Add(amount)
			outstanding[entry.LoanID] = reduce(outstanding[entry.LoanID], amount)
			if entry.CreditScoreBefore != nil && entry.CreditScoreAfter != nil {
				delta := int64(*entry.CreditScoreAfter) - int64(*entry.CreditScoreBefore)
				scoreChange = scoreChange.Add(sdkmath.NewInt(delta))
			}
		case loan.LedgerLoanForgiven:
			report.TotalForgiven = report.TotalForgiven.Add(amount)
			outstanding[entry.LoanID] = reduce(outstanding[entry.LoanID], amount)
		}
	}

	for _, balance := range outstanding {
		report.OutstandingBalance = report.OutstandingBalance.Add(balance)
	}
	if report.TotalPayments > 0 {
		report.AverageCreditScoreChange = sdkmath.LegacyNewDecFromInt(scoreChange).
			QuoInt64(int64(report.TotalPayments))
	}

	return report
}

// reduce subtracts amount from balance without going below zero. A nil
// balance belongs to a loan whose creation is outside the report.
func reduce(balance sdkmath.Int, amount sdkmath.Int) sdkmath.Int {
	if balance.IsNil() {
		return sdkmath.ZeroInt()
	}
	next := balance.Sub(amount)
	if next.IsNegative() {
		return sdkmath.ZeroInt()
	}
	return next
}

// FormatUSDC renders an amount in the smallest unit as a USDC decimal string.
func FormatUSDC(amount sdkmath.Int) string {
	unit := sdkmath.NewInt(usdcUnit)
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	return fmt.Sprintf("%s%s.%06d", sign, amount.Quo(unit).String(), amount.Mod(unit).Int64())
}
