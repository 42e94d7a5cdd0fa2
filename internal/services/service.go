package services

import (
	"context"
	"sync"
	"time"

	"github.com/gitdigital/founder-loan-service/consumer"
	"github.com/gitdigital/founder-loan-service/internal/clients/metadataclient"
	"github.com/gitdigital/founder-loan-service/internal/clients/tokenclient"
	"github.com/gitdigital/founder-loan-service/internal/config"
	"github.com/gitdigital/founder-loan-service/internal/db"
	"github.com/gitdigital/founder-loan-service/internal/utils/keylock"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

type Service struct {
	cfg   *config.Config
	db    db.DbInterface
	token tokenclient.TokenInterface
	// metadata is nil when no metadata service is configured
	metadata metadataclient.MetadataInterface
	// publisher is nil for one-shot CLI runs, events then stay in the outbox
	// until a running server relays them
	publisher consumer.EventPublisher
	locks     *keylock.KeyLock
	// publishMu serializes post-commit publication with the outbox relay
	publishMu sync.Mutex
	notifier  *pool.Pool
	now       func() time.Time
}

func NewService(
	cfg *config.Config,
	db db.DbInterface,
	token tokenclient.TokenInterface,
	metadata metadataclient.MetadataInterface,
	publisher consumer.EventPublisher,
) *Service {
	return &Service{
		cfg:       cfg,
		db:        db,
		token:     token,
		metadata:  metadata,
		publisher: publisher,
		locks:     keylock.New(),
		notifier:  pool.New().WithMaxGoroutines(cfg.Processor.NotifierWorkers),
		now:       time.Now,
	}
}

// StartOutboxRelay periodically publishes events whose post-commit publication
// failed. It requires a publisher.
func (s *Service) StartOutboxRelay(ctx context.Context) {
	if s.publisher == nil {
		log.Ctx(ctx).Warn().Msg("No event publisher configured, outbox relay disabled")
		return
	}
	s.startOutboxPoller(ctx)
}

// Stop waits for in-flight metadata pushes. The service must not be used
// afterwards.
func (s *Service) Stop() {
	s.notifier.Wait()
}

func (s *Service) timestamp() int64 {
	return s.now().Unix()
}
