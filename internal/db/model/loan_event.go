package model

import (
	"fmt"

	"github.com/gitdigital/founder-loan-service/internal/loan"
	"github.com/gitdigital/founder-loan-service/internal/types"
	"go.mongodb.org/mongo-driver/bson"
)

// LoanEventDocument is the outbox copy of an emitted event. It is written in
// the same transaction as the records the event describes.
type LoanEventDocument struct {
	ID        string           `bson:"_id"`
	DedupKey  string           `bson:"dedup_key"`
	Type      types.EventTypes `bson:"type"`
	LoanID    uint64           `bson:"loan_id"`
	Timestamp int64            `bson:"timestamp"`
	// LoanVersion is the version of the loan document written together with
	// the event. It orders the operations on one loan.
	LoanVersion uint64 `bson:"loan_version"`
	// Sequence orders the events emitted by one transition.
	Sequence  int      `bson:"sequence"`
	Payload   bson.Raw `bson:"payload"`
	Published bool     `bson:"published"`
}

func NewLoanEventDocument(id string, loanVersion uint64, sequence int, event loan.Event) (*LoanEventDocument, error) {
	payload, err := bson.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", event.EventType(), err)
	}

	return &LoanEventDocument{
		ID:          id,
		DedupKey:    loan.DedupKey(event),
		Type:        event.EventType(),
		LoanID:      event.EventLoanID(),
		Timestamp:   event.EventTimestamp(),
		LoanVersion: loanVersion,
		Sequence:    sequence,
		Payload:     payload,
	}, nil
}

// ToEvent decodes the payload back into its typed event.
func (d *LoanEventDocument) ToEvent() (loan.Event, error) {
	switch d.Type {
	case types.EventLoanCreated:
		return decodeEvent[loan.LoanCreated](d.Payload)
	case types.EventPaymentMade:
		return decodeEvent[loan.PaymentMade](d.Payload)
	case types.EventLoanRepaid:
		return decodeEvent[loan.LoanRepaid](d.Payload)
	case types.EventLoanForgiven:
		return decodeEvent[loan.LoanForgiven](d.Payload)
	case types.EventAutoRepayment:
		return decodeEvent[loan.AutoRepayment](d.Payload)
	default:
		return nil, fmt.Errorf("unknown event type %q", d.Type)
	}
}

func decodeEvent[T loan.Event](raw bson.Raw) (loan.Event, error) {
	var event T
	if err := bson.Unmarshal(raw, &event); err != nil {
		return nil, err
	}
	return event, nil
}
