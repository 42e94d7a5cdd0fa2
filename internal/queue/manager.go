package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gitdigital/founder-loan-service/internal/config"
	"github.com/gitdigital/founder-loan-service/internal/loan"
	"github.com/gitdigital/founder-loan-service/internal/observability/metrics"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ErrPermanent marks a command failure that must not be retried, e.g. a
// validation error. Handlers wrap their error with it.
var ErrPermanent = errors.New("permanent failure")

// CommandHandler applies one decoded command.
type CommandHandler func(ctx context.Context, cmd *CommandMessage) error

type QueueManager struct {
	connection    *amqp.Connection
	eventsQueue   *rabbitMqClient
	commandsQueue *rabbitMqClient
	cfg           *config.QueueConfig
	logger        *zap.Logger
}

func NewQueueManager(cfg *config.QueueConfig, logger *zap.Logger) (*QueueManager, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.QueueProcessingTimeout*dialAttempts)
	defer cancel()

	conn, err := dial(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	eventsQueue, err := newRabbitMqClient(conn, cfg, cfg.EventsQueueName, logger)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create events queue client: %w", err)
	}

	commandsQueue, err := newRabbitMqClient(conn, cfg, cfg.CommandsQueueName, logger)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create commands queue client: %w", err)
	}

	return &QueueManager{
		connection:    conn,
		eventsQueue:   eventsQueue,
		commandsQueue: commandsQueue,
		cfg:           cfg,
		logger:        logger,
	}, nil
}

func (qm *QueueManager) Start() error {
	return nil
}

func (qm *QueueManager) PushLoanEvent(ctx context.Context, event loan.Event) error {
	envelope, err := NewEventEnvelope(event)
	if err != nil {
		return err
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, qm.cfg.QueueProcessingTimeout)
	defer cancel()

	if err := qm.eventsQueue.SendMessage(ctx, string(body)); err != nil {
		metrics.RecordQueueSendError()
		qm.logger.Error("failed to push loan event",
			zap.String("event_type", envelope.EventType.String()),
			zap.String("dedup_key", envelope.DedupKey),
			zap.Error(err),
		)
		return fmt.Errorf("failed to push %s event: %w", envelope.EventType, err)
	}

	qm.logger.Debug("pushed loan event",
		zap.String("event_type", envelope.EventType.String()),
		zap.String("dedup_key", envelope.DedupKey),
	)
	return nil
}

// ReceiveCommands consumes the commands queue until ctx is done. Each message
// is handled under the processing timeout; failed messages are re-queued
// through the delay queue until the retry budget is spent.
func (qm *QueueManager) ReceiveCommands(ctx context.Context, handler CommandHandler) error {
	messages, err := qm.commandsQueue.ReceiveMessages()
	if err != nil {
		return fmt.Errorf("failed to receive commands: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return errors.New("commands queue closed")
			}
			qm.handleCommand(ctx, msg, handler)
		}
	}
}

func (qm *QueueManager) handleCommand(ctx context.Context, msg QueueMessage, handler CommandHandler) {
	logger := qm.logger.With(zap.String("receipt", msg.Receipt))

	cmd, err := DecodeCommand(msg.Body)
	if err != nil {
		logger.Error("dropping undecodable command", zap.Error(err))
		qm.ack(logger, msg)
		return
	}

	opCtx, cancel := context.WithTimeout(ctx, qm.cfg.QueueProcessingTimeout)
	err = handler(opCtx, cmd)
	cancel()

	switch {
	case err == nil:
		qm.ack(logger, msg)
	case errors.Is(err, ErrPermanent):
		logger.Warn("command rejected",
			zap.String("command", cmd.Type.String()),
			zap.Error(err),
		)
		qm.ack(logger, msg)
	case msg.GetRetryAttempts() >= qm.cfg.MsgMaxRetryAttempts:
		logger.Error("command failed, retry budget exhausted",
			zap.String("command", cmd.Type.String()),
			zap.Int32("attempts", msg.GetRetryAttempts()),
			zap.Error(err),
		)
		qm.ack(logger, msg)
	default:
		logger.Warn("command failed, requeueing",
			zap.String("command", cmd.Type.String()),
			zap.Error(err),
		)
		if err := qm.commandsQueue.ReQueueMessage(ctx, msg); err != nil {
			logger.Error("failed to requeue command", zap.Error(err))
		}
	}
}

func (qm *QueueManager) ack(logger *zap.Logger, msg QueueMessage) {
	if err := qm.commandsQueue.DeleteMessage(msg.Receipt); err != nil {
		logger.Error("failed to ack command", zap.Error(err))
	}
}

// Stop gracefully stops the interaction with the queue, ensuring all resources are properly released.
func (qm *QueueManager) Stop() error {
	qm.logger.Info("Shutting down queue manager")

	var errs []error
	if err := qm.eventsQueue.Stop(); err != nil {
		errs = append(errs, err)
	}
	if err := qm.commandsQueue.Stop(); err != nil {
		errs = append(errs, err)
	}
	if err := qm.connection.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
