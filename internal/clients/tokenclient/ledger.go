package tokenclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/gitdigital/founder-loan-service/internal/db"
	"github.com/gitdigital/founder-loan-service/internal/loan"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnauthorized      = errors.New("transfer not authorized")
	ErrAccountNotFound   = errors.New("token account not found")
)

// LedgerClient keeps custodial balances in the service database. Transfers
// join the caller's transaction when ctx carries one, which is what makes a
// failed loan operation roll its transfers back.
type LedgerClient struct {
	db db.DbInterface
}

func NewLedgerClient(dbClient db.DbInterface) *LedgerClient {
	return &LedgerClient{db: dbClient}
}

func (c *LedgerClient) Transfer(ctx context.Context, transfer loan.Transfer) error {
	if transfer.Amount == 0 {
		return nil
	}

	err := c.db.TransferTokens(ctx, transfer.From, transfer.To, transfer.Authority, transfer.Amount)
	switch {
	case err == nil:
		return nil
	case db.IsInsufficientFundsError(err):
		return fmt.Errorf("%w: %w", ErrInsufficientFunds, err)
	case db.IsUnauthorizedTransferError(err):
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	case db.IsNotFoundError(err):
		return fmt.Errorf("%w: %s", ErrAccountNotFound, transfer.From)
	default:
		return fmt.Errorf("failed to transfer %d from %s to %s: %w", transfer.Amount, transfer.From, transfer.To, err)
	}
}

func (c *LedgerClient) Balance(ctx context.Context, owner string) (uint64, error) {
	account, err := c.db.GetTokenAccount(ctx, owner)
	if err != nil {
		if db.IsNotFoundError(err) {
			return 0, nil
		}
		return 0, err
	}
	return account.Balance, nil
}

func (c *LedgerClient) Fund(ctx context.Context, owner string, amount uint64, delegate string) error {
	return c.db.CreditTokenAccount(ctx, owner, amount, delegate)
}
