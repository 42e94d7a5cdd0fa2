//go:build e2e

package e2etest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gitdigital/founder-loan-service/e2etest/container"
	"github.com/gitdigital/founder-loan-service/internal/clients/tokenclient"
	"github.com/gitdigital/founder-loan-service/internal/config"
	"github.com/gitdigital/founder-loan-service/internal/db"
	"github.com/gitdigital/founder-loan-service/internal/db/model"
	"github.com/gitdigital/founder-loan-service/internal/queue"
	"github.com/gitdigital/founder-loan-service/internal/services"
	"github.com/gitdigital/founder-loan-service/internal/types"
	"github.com/gitdigital/founder-loan-service/testutil"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	eventuallyWaitTimeOut = 40 * time.Second
)

// TestManager runs the service against real mongo and rabbitmq containers.
// Commands are published to the commands queue and the emitted events are read
// back from the events queue.
type TestManager struct {
	Config   *config.Config
	Service  *services.Service
	DbClient *db.Database
	Queue    *queue.QueueManager

	channel *amqp.Channel
	events  <-chan amqp.Delivery
}

// StartManager starts both containers and a running service, everything is
// torn down on test cleanup.
func StartManager(t *testing.T) *TestManager {
	imageCfg := container.NewImageConfig()
	brokerAddr, stopBroker, err := container.RunRabbitMQ(imageCfg)
	require.NoError(t, err)
	t.Cleanup(stopBroker)

	dbCfg, stopMongo, err := testutil.SetupMongoContainer()
	require.NoError(t, err)
	t.Cleanup(stopMongo)

	cfg := defaultConfig(t, imageCfg, brokerAddr, dbCfg)
	require.NoError(t, cfg.Validate())

	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, model.Setup(ctx, &cfg.Db))
	dbClient, err := db.New(ctx, cfg.Db)
	require.NoError(t, err)

	qm, err := queue.NewQueueManager(&cfg.Queue, zap.NewNop())
	require.NoError(t, err)

	store := db.NewDbWithMetrics(dbClient)
	token := tokenclient.NewTokenClientWithMetrics(tokenclient.NewLedgerClient(store))
	srv := services.NewService(cfg, store, token, nil, qm)

	_, initErr := srv.InitializeProtocolFromConfig(ctx)
	require.Nil(t, initErr)

	done := make(chan error, 1)
	go func() {
		done <- qm.ReceiveCommands(ctx, srv.HandleCommand)
	}()
	srv.StartOutboxRelay(ctx)

	conn, err := amqp.Dial(fmt.Sprintf("amqp://%s:%s@%s", imageCfg.User, imageCfg.Password, brokerAddr))
	require.NoError(t, err)
	channel, err := conn.Channel()
	require.NoError(t, err)
	events, err := channel.Consume(cfg.Queue.EventsQueueName, "", true, false, false, false, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		cancel()
		err := <-done
		if !errors.Is(err, context.Canceled) {
			t.Errorf("command consumer stopped: %v", err)
		}
		_ = conn.Close()
		srv.Stop()
		_ = qm.Stop()
		_ = dbClient.Close(context.Background())
	})

	return &TestManager{
		Config:   cfg,
		Service:  srv,
		DbClient: dbClient,
		Queue:    qm,
		channel:  channel,
		events:   events,
	}
}

func defaultConfig(t *testing.T, imageCfg container.ImageConfig, brokerAddr string, dbCfg *config.DbConfig) *config.Config {
	authority, err := testutil.RandomIdentity()
	require.NoError(t, err)
	treasury, err := testutil.RandomIdentity()
	require.NoError(t, err)

	return &config.Config{
		Db: *dbCfg,
		Queue: config.QueueConfig{
			QueueUser:              imageCfg.User,
			QueuePassword:          imageCfg.Password,
			Url:                    brokerAddr,
			QueueProcessingTimeout: 5 * time.Second,
			MsgMaxRetryAttempts:    3,
			ReQueueDelayTime:       time.Second,
			QueueType:              config.ClassicQueueType,
		},
		Protocol: config.ProtocolConfig{
			Authority:      authority,
			Treasury:       treasury,
			ProtocolFeeBps: 50,
			MinCreditScore: 300,
		},
		Processor: config.ProcessorConfig{
			OperationTimeout:   5 * time.Second,
			NotifierWorkers:    2,
			OutboxPollInterval: time.Second,
			OutboxBatchSize:    100,
		},
		Metrics: config.MetricsConfig{
			Host: "0.0.0.0",
			Port: 2112,
		},
	}
}

// SendCommand publishes cmd to the commands queue the way an upstream producer
// would.
func (tm *TestManager) SendCommand(t *testing.T, cmd *queue.CommandMessage) {
	body, err := json.Marshal(cmd)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = tm.channel.PublishWithContext(ctx, "", tm.Config.Queue.CommandsQueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	require.NoError(t, err)
}

// NextEvent returns the next event published on the events queue.
func (tm *TestManager) NextEvent(t *testing.T) *queue.EventEnvelope {
	select {
	case delivery, ok := <-tm.events:
		require.True(t, ok, "events queue closed")

		var envelope queue.EventEnvelope
		require.NoError(t, json.Unmarshal(delivery.Body, &envelope))
		return &envelope
	case <-time.After(eventuallyWaitTimeOut):
		t.Fatal("timed out waiting for a loan event")
		return nil
	}
}

// ExpectEvents reads the next len(expected) events and checks their types.
func (tm *TestManager) ExpectEvents(t *testing.T, expected ...types.EventTypes) []*queue.EventEnvelope {
	envelopes := make([]*queue.EventEnvelope, len(expected))
	for i, eventType := range expected {
		envelopes[i] = tm.NextEvent(t)
		require.Equal(t, eventType, envelopes[i].EventType, "event %d", i)
	}
	return envelopes
}
