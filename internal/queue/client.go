package queue

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/gitdigital/founder-loan-service/internal/config"
	"github.com/gitdigital/founder-loan-service/pkg"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	dlxName              = "common_dlx"
	delayedQueueSuffix   = "_delay"
	retryAttemptsHeader  = "x-processing-attempts"
	dialAttempts         = 5
	dialRetryInitialWait = 500 * time.Millisecond
)

// QueueMessage is a message received from a queue. Receipt identifies it for
// acknowledgement.
type QueueMessage struct {
	Body          string
	Receipt       string
	RetryAttempts int32
}

func (m QueueMessage) IncrementRetryAttempts() int32 {
	m.RetryAttempts++
	return m.RetryAttempts
}

func (m QueueMessage) GetRetryAttempts() int32 {
	return m.RetryAttempts
}

// rabbitMqClient is bound to one durable queue plus its delay queue, used to
// re-deliver failed messages after cfg.ReQueueDelayTime.
type rabbitMqClient struct {
	connection *amqp.Connection
	channel    *amqp.Channel
	queueName  string
	stopCh     chan struct{}
	logger     *zap.Logger
}

func dial(ctx context.Context, cfg *config.QueueConfig, logger *zap.Logger) (*amqp.Connection, error) {
	amqpURI := fmt.Sprintf("amqp://%s:%s@%s", cfg.QueueUser, cfg.QueuePassword, cfg.Url)

	return retry.DoWithData(
		func() (*amqp.Connection, error) {
			return amqp.Dial(amqpURI)
		},
		retry.Context(ctx),
		retry.Attempts(dialAttempts),
		retry.Delay(dialRetryInitialWait),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("failed to connect to rabbitmq, retrying",
				zap.Uint("attempt", n+1),
				zap.String("url", cfg.Url),
				zap.Error(err),
			)
		}),
	)
}

func newRabbitMqClient(conn *amqp.Connection, cfg *config.QueueConfig, queueName string, logger *zap.Logger) (*rabbitMqClient, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	// prefetch one message at a time so a slow consumer does not hoard work
	if err := ch.Qos(1, 0, false); err != nil {
		return nil, err
	}

	if err := ch.ExchangeDeclare(dlxName, "direct", true, false, false, false, nil); err != nil {
		return nil, err
	}

	args := amqp.Table{"x-queue-type": cfg.QueueType}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, args); err != nil {
		return nil, err
	}
	if err := ch.QueueBind(queueName, queueName, dlxName, false, nil); err != nil {
		return nil, err
	}

	delayedArgs := amqp.Table{
		"x-queue-type":              cfg.QueueType,
		"x-dead-letter-exchange":    dlxName,
		"x-dead-letter-routing-key": queueName,
		"x-message-ttl":             cfg.ReQueueDelayTime.Milliseconds(),
	}
	if _, err := ch.QueueDeclare(queueName+delayedQueueSuffix, true, false, false, false, delayedArgs); err != nil {
		return nil, err
	}

	return &rabbitMqClient{
		connection: conn,
		channel:    ch,
		queueName:  queueName,
		stopCh:     make(chan struct{}),
		logger:     logger.With(zap.String("queue", queueName)),
	}, nil
}

func (c *rabbitMqClient) SendMessage(ctx context.Context, messageBody string) error {
	return c.sendMessage(ctx, c.queueName, messageBody, 0)
}

func (c *rabbitMqClient) sendMessage(ctx context.Context, queueName, messageBody string, attempts int32) error {
	return c.channel.PublishWithContext(ctx,
		"",
		queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         []byte(messageBody),
			Headers:      amqp.Table{retryAttemptsHeader: attempts},
		},
	)
}

func (c *rabbitMqClient) ReceiveMessages() (<-chan QueueMessage, error) {
	// consumer tags must be unique per channel
	consumerTag := c.queueName + "-" + pkg.RandString(8)
	deliveries, err := c.channel.Consume(c.queueName, consumerTag, false, false, false, false, nil)
	if err != nil {
		return nil, err
	}

	output := make(chan QueueMessage)
	go func() {
		defer close(output)
		for {
			select {
			case d, ok := <-deliveries:
				if !ok {
					c.logger.Info("delivery channel closed")
					return
				}
				msg := QueueMessage{
					Body:          string(d.Body),
					Receipt:       strconv.FormatUint(d.DeliveryTag, 10),
					RetryAttempts: retryAttempts(d.Headers),
				}
				select {
				case output <- msg:
				case <-c.stopCh:
					return
				}
			case <-c.stopCh:
				return
			}
		}
	}()

	return output, nil
}

func retryAttempts(headers amqp.Table) int32 {
	switch v := headers[retryAttemptsHeader].(type) {
	case int32:
		return v
	case int64:
		return int32(v)
	case int:
		return int32(v)
	default:
		return 0
	}
}

// DeleteMessage acknowledges a message so it is not delivered again.
func (c *rabbitMqClient) DeleteMessage(receipt string) error {
	tag, err := strconv.ParseUint(receipt, 10, 64)
	if err != nil {
		return err
	}
	return c.channel.Ack(tag, false)
}

// ReQueueMessage moves a message to the delay queue with its attempt counter
// incremented and acknowledges the original delivery.
func (c *rabbitMqClient) ReQueueMessage(ctx context.Context, message QueueMessage) error {
	if err := c.sendMessage(ctx, c.queueName+delayedQueueSuffix, message.Body, message.IncrementRetryAttempts()); err != nil {
		return fmt.Errorf("failed to requeue message: %w", err)
	}
	return c.DeleteMessage(message.Receipt)
}

func (c *rabbitMqClient) Stop() error {
	select {
	case <-c.stopCh:
		return nil
	default:
		close(c.stopCh)
	}
	return c.channel.Close()
}
