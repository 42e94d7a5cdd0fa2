package config

import (
	"errors"
	"time"
)

const (
	defaultEventsQueueName   = "founder_loan_events_queue"
	defaultCommandsQueueName = "founder_loan_commands_queue"

	ClassicQueueType = "classic"
	QuorumQueueType  = "quorum"
)

type QueueConfig struct {
	QueueUser              string        `mapstructure:"queue_user"`
	QueuePassword          string        `mapstructure:"queue_password"`
	Url                    string        `mapstructure:"url"`
	QueueProcessingTimeout time.Duration `mapstructure:"processing_timeout"`
	MsgMaxRetryAttempts    int32         `mapstructure:"msg_max_retry_attempts"`
	ReQueueDelayTime       time.Duration `mapstructure:"requeue_delay_time"`
	QueueType              string        `mapstructure:"queue_type"`
	EventsQueueName        string        `mapstructure:"events_queue_name"`
	CommandsQueueName      string        `mapstructure:"commands_queue_name"`
}

func (cfg *QueueConfig) Validate() error {
	if cfg.QueueUser == "" {
		return errors.New("missing queue user")
	}

	if cfg.QueuePassword == "" {
		return errors.New("missing queue password")
	}

	if cfg.Url == "" {
		return errors.New("missing queue url")
	}

	if cfg.QueueProcessingTimeout <= 0 {
		return errors.New("invalid queue processing timeout")
	}

	if cfg.MsgMaxRetryAttempts <= 0 {
		return errors.New("invalid queue message max retry attempts")
	}

	if cfg.ReQueueDelayTime <= 0 {
		return errors.New("requeue delay time must be positive")
	}

	switch cfg.QueueType {
	case "":
		cfg.QueueType = QuorumQueueType
	case ClassicQueueType, QuorumQueueType:
	default:
		return errors.New("queue type must be classic or quorum")
	}

	if cfg.EventsQueueName == "" {
		cfg.EventsQueueName = defaultEventsQueueName
	}

	if cfg.CommandsQueueName == "" {
		cfg.CommandsQueueName = defaultCommandsQueueName
	}

	if cfg.EventsQueueName == cfg.CommandsQueueName {
		return errors.New("events and commands queues must differ")
	}

	return nil
}
