package queue

import (
	"encoding/json"
	"testing"

	"github.com/gitdigital/founder-loan-service/internal/loan"
	"github.com/gitdigital/founder-loan-service/internal/types"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventEnvelope(t *testing.T) {
	event := loan.PaymentMade{
		LoanID:             3,
		Amount:             1_000_000,
		Fee:                5_000,
		OldCreditScore:     300,
		NewCreditScore:     301,
		RemainingPrincipal: 99_000_000,
		PaymentNumber:      1,
		Timestamp:          1_700_000_000,
	}

	envelope, err := NewEventEnvelope(event)
	require.NoError(t, err)
	assert.Equal(t, EventSchemaVersion, envelope.SchemaVersion)
	assert.Equal(t, types.EventPaymentMade, envelope.EventType)
	assert.Equal(t, "3:PaymentMade:1700000000", envelope.DedupKey)

	var decoded loan.PaymentMade
	require.NoError(t, json.Unmarshal(envelope.Payload, &decoded))
	assert.Equal(t, event, decoded)
}

func TestDecodeCommand(t *testing.T) {
	t.Run("forgive with optional amount", func(t *testing.T) {
		cmd, err := DecodeCommand(`{"type":"forgive_loan","loan_id":4,"caller":"lender","trace_id":"abc"}`)
		require.NoError(t, err)
		assert.Equal(t, types.CommandForgiveLoan, cmd.Type)
		assert.Equal(t, uint64(4), cmd.LoanID)
		assert.Nil(t, cmd.Amount)
		assert.Equal(t, "abc", cmd.TraceID)
	})
	t.Run("repayment", func(t *testing.T) {
		cmd, err := DecodeCommand(`{"type":"make_repayment","loan_id":4,"amount":50000000}`)
		require.NoError(t, err)
		require.NotNil(t, cmd.Amount)
		assert.Equal(t, uint64(50_000_000), *cmd.Amount)
	})
	t.Run("unknown type", func(t *testing.T) {
		_, err := DecodeCommand(`{"type":"default_loan","loan_id":4}`)
		assert.ErrorContains(t, err, "unknown command type")
	})
	t.Run("malformed", func(t *testing.T) {
		_, err := DecodeCommand(`{`)
		assert.Error(t, err)
	})
}

func TestRetryAttempts(t *testing.T) {
	assert.Equal(t, int32(0), retryAttempts(nil))
	assert.Equal(t, int32(2), retryAttempts(amqp.Table{retryAttemptsHeader: int32(2)}))
	assert.Equal(t, int32(3), retryAttempts(amqp.Table{retryAttemptsHeader: int64(3)}))

	msg := QueueMessage{RetryAttempts: 1}
	assert.Equal(t, int32(2), msg.IncrementRetryAttempts())
	// value receiver leaves the original untouched
	assert.Equal(t, int32(1), msg.GetRetryAttempts())
}
