package consumer

import (
	"context"

	"github.com/gitdigital/founder-loan-service/internal/loan"
)

// EventPublisher delivers committed loan events to downstream consumers.
//
//go:generate mockery --name=EventPublisher --output=../tests/mocks --outpkg=mocks --filename=mock_event_publisher.go
type EventPublisher interface {
	Start() error
	PushLoanEvent(ctx context.Context, event loan.Event) error
	Stop() error
}
