package services

import (
	"context"
	"strconv"

	"github.com/gitdigital/founder-loan-service/internal/db"
	"github.com/gitdigital/founder-loan-service/internal/loan"
	"github.com/gitdigital/founder-loan-service/internal/observability/metrics"
	"github.com/gitdigital/founder-loan-service/internal/types"
)

const (
	operationCreateLoan  = "create_loan"
	operationRepay       = "make_repayment"
	operationAutoRepay   = "auto_repay_from_revenue"
	operationForgiveLoan = "forgive_loan"

	repaymentSourceManual  = "manual"
	repaymentSourceRevenue = "revenue"
)

// CreateLoan opens a loan for req.Borrower. The loan id is allocated from the
// protocol counter, so creations are serialized on the protocol lock.
func (s *Service) CreateLoan(ctx context.Context, req loan.CreateRequest) (*loan.Account, *types.Error) {
	if err := loan.ValidateCreateRequest(req); err != nil {
		return nil, mapError(err)
	}
	if err := validateIdentities(req.Borrower, req.Lender); err != nil {
		return nil, mapError(err)
	}

	res, err := s.execute(ctx, operation{
		name: operationCreateLoan,
		lockKeys: func(context.Context) ([]string, error) {
			return []string{borrowerLockKey(req.Borrower), protocolLockKey}, nil
		},
		apply: func(ctx context.Context, now int64) (*records, *loan.Transition, error) {
			protocol, err := s.loadProtocol(ctx)
			if err != nil {
				return nil, nil, err
			}
			borrower, err := s.loadBorrower(ctx, req.Borrower)
			if err != nil {
				return nil, nil, err
			}
			tr, err := loan.CreateLoan(protocolOf(protocol), profileOf(borrower), req, now)
			if err != nil {
				return nil, nil, err
			}
			return &records{protocol: protocol, borrower: borrower}, tr, nil
		},
	})
	if err != nil {
		return nil, err
	}

	account := res.account()
	metrics.RecordLoanCreated(account.Principal)
	return account, nil
}

// MakeRepayment applies a borrower funded payment. The protocol fee is
// charged on top of amount.
func (s *Service) MakeRepayment(ctx context.Context, loanID uint64, amount uint64) (*loan.Account, *types.Error) {
	res, err := s.execute(ctx, operation{
		name:      operationRepay,
		lockKeys:  s.loanAndBorrowerKeys(loanID),
		qualified: types.QualifiedStatesForRepayment(),
		apply: func(ctx context.Context, now int64) (*records, *loan.Transition, error) {
			recs, err := s.loadForRepayment(ctx, loanID)
			if err != nil {
				return nil, nil, err
			}
			tr, err := loan.MakeRepayment(
				protocolOf(recs.protocol), recs.loan.ToAccount(), recs.borrower.ToProfile(), amount, now,
			)
			if err != nil {
				return nil, nil, err
			}
			return recs, tr, nil
		},
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordAmountRepaid(repaymentSourceManual, amount)
	return res.account(), nil
}

// AutoRepayFromRevenue applies the loan's share of revenueAmount, drawn from
// source. A share that rounds to zero changes nothing and is not an error.
func (s *Service) AutoRepayFromRevenue(
	ctx context.Context, loanID uint64, source loan.RevenueSource, revenueAmount uint64,
) (*loan.Account, *types.Error) {
	if err := validateIdentities(source.Treasury, source.Authority); err != nil {
		return nil, mapError(err)
	}

	res, err := s.execute(ctx, operation{
		name:      operationAutoRepay,
		lockKeys:  s.loanAndBorrowerKeys(loanID),
		qualified: types.QualifiedStatesForRepayment(),
		apply: func(ctx context.Context, now int64) (*records, *loan.Transition, error) {
			recs, err := s.loadForRepayment(ctx, loanID)
			if err != nil {
				return nil, nil, err
			}
			tr, err := loan.AutoRepayFromRevenue(
				recs.loan.ToAccount(), recs.borrower.ToProfile(), source, revenueAmount, now,
			)
			if err != nil {
				return nil, nil, err
			}
			return recs, tr, nil
		},
	})
	if err != nil {
		return nil, err
	}

	for _, transfer := range res.transition.Transfers {
		metrics.RecordAmountRepaid(repaymentSourceRevenue, transfer.Amount)
	}
	return res.account(), nil
}

// ForgiveLoan writes off amount, or the whole remainder when amount is nil.
// Only the loan's lender may forgive it.
func (s *Service) ForgiveLoan(
	ctx context.Context, loanID uint64, caller string, amount *uint64,
) (*loan.Account, *types.Error) {
	res, err := s.execute(ctx, operation{
		name: operationForgiveLoan,
		lockKeys: func(context.Context) ([]string, error) {
			return []string{loanLockKey(loanID)}, nil
		},
		qualified: types.QualifiedStatesForForgiveness(),
		apply: func(ctx context.Context, now int64) (*records, *loan.Transition, error) {
			doc, err := s.loadLoan(ctx, loanID)
			if err != nil {
				return nil, nil, err
			}
			tr, err := loan.ForgiveLoan(doc.ToAccount(), caller, amount, now)
			if err != nil {
				return nil, nil, err
			}
			return &records{loan: doc}, tr, nil
		},
	})
	if err != nil {
		return nil, err
	}
	return res.account(), nil
}

// loanAndBorrowerKeys looks the loan up to learn its borrower. The borrower of
// a loan never changes, so reading it before the lock is safe.
func (s *Service) loanAndBorrowerKeys(loanID uint64) func(ctx context.Context) ([]string, error) {
	return func(ctx context.Context) ([]string, error) {
		doc, err := s.loadLoan(ctx, loanID)
		if err != nil {
			return nil, err
		}
		return []string{loanLockKey(loanID), borrowerLockKey(doc.Borrower)}, nil
	}
}

// loadForRepayment reads the loan, its borrower and the protocol config. The
// protocol is only read by repayments and is not locked.
func (s *Service) loadForRepayment(ctx context.Context, loanID uint64) (*records, error) {
	loanDoc, err := s.loadLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	borrower, err := s.loadBorrower(ctx, loanDoc.Borrower)
	if err != nil {
		return nil, err
	}
	if borrower == nil {
		return nil, &db.NotFoundError{
			Key:     loanDoc.Borrower,
			Message: "borrower profile of loan " + strconv.FormatUint(loanID, 10) + " not found",
		}
	}
	protocol, err := s.loadProtocol(ctx)
	if err != nil {
		return nil, err
	}
	return &records{protocol: protocol, borrower: borrower, loan: loanDoc}, nil
}
