package config

import (
	"errors"
	"time"
)

const (
	defaultNotifierWorkers    = 4
	defaultOutboxBatchSize    = 100
	defaultOutboxPollInterval = 30 * time.Second
)

type ProcessorConfig struct {
	// OperationTimeout bounds a single loan operation, lock wait included.
	OperationTimeout time.Duration `mapstructure:"operation-timeout"`
	NotifierWorkers  int           `mapstructure:"notifier-workers"`
	// OutboxPollInterval is how often unpublished events are retried.
	OutboxPollInterval time.Duration `mapstructure:"outbox-poll-interval"`
	OutboxBatchSize    int64         `mapstructure:"outbox-batch-size"`
}

func (cfg *ProcessorConfig) Validate() error {
	if cfg.OperationTimeout <= 0 {
		return errors.New("operation-timeout must be positive")
	}

	if cfg.NotifierWorkers <= 0 {
		cfg.NotifierWorkers = defaultNotifierWorkers
	}

	if cfg.OutboxPollInterval < 0 {
		return errors.New("outbox-poll-interval must not be negative")
	}
	if cfg.OutboxPollInterval == 0 {
		cfg.OutboxPollInterval = defaultOutboxPollInterval
	}

	if cfg.OutboxBatchSize <= 0 {
		cfg.OutboxBatchSize = defaultOutboxBatchSize
	}

	return nil
}
