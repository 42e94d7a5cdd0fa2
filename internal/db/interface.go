package db

import (
	"context"

	"github.com/gitdigital/founder-loan-service/internal/db/model"
	"github.com/gitdigital/founder-loan-service/internal/types"
)

type DbInterface interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error
	// WithTransaction runs fn in a transaction, see Database.WithTransaction.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// GetProtocolConfig returns the protocol config or NotFoundError when the
	// deployment is not initialized.
	GetProtocolConfig(ctx context.Context) (*model.ProtocolConfigDocument, error)
	// SaveProtocolConfig inserts the protocol config. A second insert fails
	// with DuplicateKeyError.
	SaveProtocolConfig(ctx context.Context, doc *model.ProtocolConfigDocument) error
	// UpdateProtocolConfig replaces the protocol config if its stored version
	// equals expectedVersion; the stored version becomes doc.Version.
	UpdateProtocolConfig(ctx context.Context, doc *model.ProtocolConfigDocument, expectedVersion uint64) error

	GetBorrower(ctx context.Context, owner string) (*model.BorrowerDocument, error)
	SaveNewBorrower(ctx context.Context, doc *model.BorrowerDocument) error
	UpdateBorrower(ctx context.Context, doc *model.BorrowerDocument, expectedVersion uint64) error

	GetLoan(ctx context.Context, loanID uint64) (*model.LoanDocument, error)
	GetLoansByBorrower(ctx context.Context, borrower string) ([]*model.LoanDocument, error)
	SaveNewLoan(ctx context.Context, doc *model.LoanDocument) error
	// UpdateLoan replaces the loan if its stored version equals expectedVersion
	// and its stored status is one of qualifiedStatuses.
	UpdateLoan(
		ctx context.Context, doc *model.LoanDocument, expectedVersion uint64, qualifiedStatuses []types.LoanStatus,
	) error

	GetTokenAccount(ctx context.Context, owner string) (*model.TokenAccountDocument, error)
	// CreditTokenAccount adds amount to owner's balance, creating the account
	// if needed. A non-empty delegate replaces the stored delegate.
	CreditTokenAccount(ctx context.Context, owner string, amount uint64, delegate string) error
	// TransferTokens moves amount between two token accounts on behalf of
	// authority.
	TransferTokens(ctx context.Context, from, to, authority string, amount uint64) error

	SaveLoanEvents(ctx context.Context, docs []*model.LoanEventDocument) error
	// GetLoanEvents returns the events of one loan, or of every loan when
	// loanID is nil, in emission order.
	GetLoanEvents(ctx context.Context, loanID *uint64) ([]*model.LoanEventDocument, error)
	GetUnpublishedLoanEvents(ctx context.Context, limit int64) ([]*model.LoanEventDocument, error)
	MarkLoanEventsPublished(ctx context.Context, ids []string) error
}
