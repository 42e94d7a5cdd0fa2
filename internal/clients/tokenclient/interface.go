package tokenclient

import (
	"context"

	"github.com/gitdigital/founder-loan-service/internal/loan"
)

// TokenInterface is the transfer primitive. A Transfer either moves the whole
// amount or nothing.
//
//go:generate mockery --name=TokenInterface --output=../../../tests/mocks --outpkg=mocks --filename=mock_token_client.go
type TokenInterface interface {
	Transfer(ctx context.Context, transfer loan.Transfer) error
	Balance(ctx context.Context, owner string) (uint64, error)
	// Fund credits owner with amount, optionally naming a delegate allowed to
	// move the funds.
	Fund(ctx context.Context, owner string, amount uint64, delegate string) error
}
