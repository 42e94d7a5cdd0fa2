package services

import (
	"context"
	"fmt"
	"time"

	"github.com/gitdigital/founder-loan-service/internal/db/model"
	"github.com/gitdigital/founder-loan-service/internal/observability/metrics"
	"github.com/gitdigital/founder-loan-service/internal/types"
	"github.com/gitdigital/founder-loan-service/internal/utils/poller"
	"github.com/rs/zerolog/log"
)

// publishCommitted publishes the outbox events of a committed operation.
// Failures are logged only: the events stay unpublished and the outbox relay
// picks them up.
func (s *Service) publishCommitted(ctx context.Context, outbox []*model.LoanEventDocument) {
	if s.publisher == nil || len(outbox) == 0 {
		return
	}

	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	if _, err := s.publishEvents(ctx, outbox); err != nil {
		log.Ctx(ctx).Warn().
			Err(err).
			Uint64("loan_id", outbox[0].LoanID).
			Msg("Failed to publish loan events, leaving them to the outbox relay")
	}
}

// publishEvents pushes docs in order and marks the pushed ones as published.
// It stops at the first failure so a loan's events are never published out of
// order. Callers hold publishMu.
func (s *Service) publishEvents(ctx context.Context, docs []*model.LoanEventDocument) (int, error) {
	published := make([]string, 0, len(docs))

	var pushErr error
	for _, doc := range docs {
		event, err := doc.ToEvent()
		if err != nil {
			pushErr = fmt.Errorf("failed to decode loan event %s: %w", doc.ID, err)
			break
		}
		if err := s.publisher.PushLoanEvent(ctx, event); err != nil {
			pushErr = err
			break
		}
		published = append(published, doc.ID)
	}

	if len(published) > 0 {
		if err := s.db.MarkLoanEventsPublished(ctx, published); err != nil {
			return 0, fmt.Errorf("failed to mark loan events published: %w", err)
		}
	}

	return len(published), pushErr
}

func (s *Service) startOutboxPoller(ctx context.Context) {
	outboxPoller := poller.NewPoller(
		s.cfg.Processor.OutboxPollInterval,
		metrics.RecordPollerDuration("outbox", s.RelayUnpublishedEvents),
	)
	go outboxPoller.Start(ctx)
}

// RelayUnpublishedEvents publishes one batch of events left unpublished, oldest
// first. Events younger than the poll interval are skipped, their own
// operation is still expected to publish them.
func (s *Service) RelayUnpublishedEvents(ctx context.Context) *types.Error {
	log := log.Ctx(ctx)

	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	docs, err := s.db.GetUnpublishedLoanEvents(ctx, s.cfg.Processor.OutboxBatchSize)
	if err != nil {
		return types.NewInternalServiceError(fmt.Errorf("failed to get unpublished loan events: %w", err))
	}
	docs = s.settled(docs)
	if len(docs) == 0 {
		return nil
	}

	published, err := s.publishEvents(ctx, docs)
	if err != nil {
		log.Error().
			Err(err).
			Int("published", published).
			Int("pending", len(docs)-published).
			Msg("Outbox relay stopped early")
		return types.NewInternalServiceError(err)
	}

	log.Info().Int("published", published).Msg("Relayed unpublished loan events")
	return nil
}

// settled returns the prefix of docs, sorted by timestamp, that is older than
// the relay grace period.
func (s *Service) settled(docs []*model.LoanEventDocument) []*model.LoanEventDocument {
	grace := int64(s.cfg.Processor.OutboxPollInterval / time.Second)
	if grace < 1 {
		grace = 1
	}
	// timestamps are truncated to seconds
	cutoff := s.timestamp() - grace

	for i, doc := range docs {
		if doc.Timestamp >= cutoff {
			return docs[:i]
		}
	}
	return docs
}
