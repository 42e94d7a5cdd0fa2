package services

import (
	"context"
	"fmt"

	"github.com/gitdigital/founder-loan-service/internal/loan"
	"github.com/gitdigital/founder-loan-service/internal/observability/tracing"
	"github.com/gitdigital/founder-loan-service/internal/queue"
	"github.com/gitdigital/founder-loan-service/internal/types"
)

// HandleCommand applies a command received from the commands queue. Errors
// that a retry cannot fix are wrapped with queue.ErrPermanent.
func (s *Service) HandleCommand(ctx context.Context, cmd *queue.CommandMessage) error {
	ctx = tracing.InjectTraceIDValue(ctx, cmd.TraceID)

	var err *types.Error
	switch cmd.Type {
	case types.CommandCreateLoan:
		collateral, parseErr := types.CollateralTypeFromString(cmd.CollateralType)
		if parseErr != nil {
			return fmt.Errorf("%w: %w", queue.ErrPermanent, parseErr)
		}
		_, err = s.CreateLoan(ctx, loan.CreateRequest{
			Principal:           cmd.Principal,
			RepaymentPercentage: cmd.RepaymentPercentage,
			TermMonths:          cmd.TermMonths,
			CollateralType:      collateral,
			Borrower:            cmd.Borrower,
			Lender:              cmd.Lender,
		})
	case types.CommandMakeRepayment:
		if cmd.Amount == nil {
			return fmt.Errorf("%w: %w", queue.ErrPermanent, loan.ErrInvalidAmount)
		}
		_, err = s.MakeRepayment(ctx, cmd.LoanID, *cmd.Amount)
	case types.CommandAutoRepayFromRevenue:
		_, err = s.AutoRepayFromRevenue(ctx, cmd.LoanID, loan.RevenueSource{
			Treasury:  cmd.RevenueTreasury,
			Authority: cmd.RevenueAuthority,
		}, cmd.RevenueAmount)
	case types.CommandForgiveLoan:
		_, err = s.ForgiveLoan(ctx, cmd.LoanID, cmd.Caller, cmd.Amount)
	default:
		return fmt.Errorf("%w: unknown command %q", queue.ErrPermanent, cmd.Type)
	}

	if err == nil {
		return nil
	}
	if !isRetryable(err) {
		return fmt.Errorf("%w: %w", queue.ErrPermanent, err)
	}
	return err
}
