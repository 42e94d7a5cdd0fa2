package services

import (
	"context"

	"github.com/gitdigital/founder-loan-service/internal/clients/metadataclient"
	"github.com/gitdigital/founder-loan-service/internal/loan"
	"github.com/gitdigital/founder-loan-service/internal/observability/metrics"
	"github.com/rs/zerolog/log"
)

// MetadataFor renders the visual tier snapshot of a loan.
func MetadataFor(account *loan.Account) metadataclient.LoanMetadata {
	return metadataclient.LoanMetadata{
		LoanID:               account.LoanID,
		Principal:            account.Principal,
		Repaid:               account.AmountRepaid,
		CreditScore:          account.CreditScore,
		Status:               account.Status.String(),
		VisualTier:           loan.TierFor(account).String(),
		RepaymentProgressBps: loan.ProgressBps(account),
	}
}

// notifyMetadata pushes the loan's visual tier on the notifier pool. It blocks
// only while every worker is busy. Failures never reach the caller.
func (s *Service) notifyMetadata(ctx context.Context, account *loan.Account) {
	if s.metadata == nil {
		return
	}

	metadata := MetadataFor(account)
	logger := log.Ctx(ctx)
	// the push outlives the operation's deadline
	pushCtx := context.WithoutCancel(ctx)

	s.notifier.Go(func() {
		if err := s.metadata.UpdateLoanMetadata(pushCtx, metadata); err != nil {
			metrics.IncMetadataPushFailures()
			logger.Warn().
				Err(err).
				Uint64("loan_id", metadata.LoanID).
				Str("visual_tier", metadata.VisualTier).
				Msg("Failed to push loan metadata")
			return
		}
		logger.Debug().
			Uint64("loan_id", metadata.LoanID).
			Str("visual_tier", metadata.VisualTier).
			Msg("Pushed loan metadata")
	})
}
