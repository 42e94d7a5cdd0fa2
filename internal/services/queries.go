package services

import (
	"context"
	"fmt"

	"github.com/gitdigital/founder-loan-service/internal/loan"
	"github.com/gitdigital/founder-loan-service/internal/types"
)

func (s *Service) GetLoan(ctx context.Context, loanID uint64) (*loan.Account, *types.Error) {
	doc, err := s.loadLoan(ctx, loanID)
	if err != nil {
		return nil, mapError(err)
	}
	return doc.ToAccount(), nil
}

func (s *Service) GetBorrower(ctx context.Context, owner string) (*loan.Profile, *types.Error) {
	doc, err := s.db.GetBorrower(ctx, owner)
	if err != nil {
		return nil, mapError(fmt.Errorf("failed to get borrower %s: %w", owner, err))
	}
	return doc.ToProfile(), nil
}

// GetBorrowerLoans lists every loan of owner ordered by loan id.
func (s *Service) GetBorrowerLoans(ctx context.Context, owner string) ([]*loan.Account, *types.Error) {
	docs, err := s.db.GetLoansByBorrower(ctx, owner)
	if err != nil {
		return nil, mapError(fmt.Errorf("failed to get loans of %s: %w", owner, err))
	}

	accounts := make([]*loan.Account, 0, len(docs))
	for _, doc := range docs {
		accounts = append(accounts, doc.ToAccount())
	}
	return accounts, nil
}

// GetLoanEvents returns the recorded events of one loan, or of every loan when
// loanID is nil.
func (s *Service) GetLoanEvents(ctx context.Context, loanID *uint64) ([]loan.Event, *types.Error) {
	docs, err := s.db.GetLoanEvents(ctx, loanID)
	if err != nil {
		return nil, mapError(fmt.Errorf("failed to get loan events: %w", err))
	}

	events := make([]loan.Event, 0, len(docs))
	for _, doc := range docs {
		event, err := doc.ToEvent()
		if err != nil {
			return nil, types.NewInternalServiceError(fmt.Errorf("failed to decode loan event %s: %w", doc.ID, err))
		}
		events = append(events, event)
	}
	return events, nil
}

// FundAccount credits owner's token account. A non-empty delegate is allowed
// to move the funds on owner's behalf, which is how a company treasury grants
// revenue based repayments.
func (s *Service) FundAccount(ctx context.Context, owner string, amount uint64, delegate string) *types.Error {
	if owner == "" {
		return mapError(loan.ErrInvalidIdentity)
	}
	if err := validateIdentities(owner, delegate); err != nil {
		return mapError(err)
	}
	if amount == 0 {
		return mapError(loan.ErrInvalidAmount)
	}

	if err := s.token.Fund(ctx, owner, amount, delegate); err != nil {
		return mapError(fmt.Errorf("failed to fund %s: %w", owner, err))
	}
	return nil
}

func (s *Service) Balance(ctx context.Context, owner string) (uint64, *types.Error) {
	balance, err := s.token.Balance(ctx, owner)
	if err != nil {
		return 0, mapError(fmt.Errorf("failed to get balance of %s: %w", owner, err))
	}
	return balance, nil
}
