package tokenclient

import (
	"context"
	"time"

	"github.com/gitdigital/founder-loan-service/internal/loan"
	"github.com/gitdigital/founder-loan-service/internal/observability/metrics"
)

type tokenClientWithMetrics struct {
	token TokenInterface
}

func NewTokenClientWithMetrics(token TokenInterface) *tokenClientWithMetrics {
	return &tokenClientWithMetrics{token: token}
}

func (t *tokenClientWithMetrics) Transfer(ctx context.Context, transfer loan.Transfer) error {
	startTime := time.Now()
	err := t.token.Transfer(ctx, transfer)
	metrics.RecordTransferLatency(time.Since(startTime), transfer.Purpose, err != nil)
	return err
}

func (t *tokenClientWithMetrics) Balance(ctx context.Context, owner string) (uint64, error) {
	return t.token.Balance(ctx, owner)
}

func (t *tokenClientWithMetrics) Fund(ctx context.Context, owner string, amount uint64, delegate string) error {
	return t.token.Fund(ctx, owner, amount, delegate)
}
