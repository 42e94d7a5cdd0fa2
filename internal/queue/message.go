package queue

import (
	"encoding/json"
	"fmt"

	"github.com/gitdigital/founder-loan-service/internal/loan"
	"github.com/gitdigital/founder-loan-service/internal/types"
)

const EventSchemaVersion = 1

// EventEnvelope is the wire form of a published loan event. Consumers
// deduplicate on DedupKey.
type EventEnvelope struct {
	SchemaVersion int              `json:"schema_version"`
	EventType     types.EventTypes `json:"event_type"`
	DedupKey      string           `json:"dedup_key"`
	LoanID        uint64           `json:"loan_id"`
	Timestamp     int64            `json:"timestamp"`
	Payload       json.RawMessage  `json:"payload"`
}

func NewEventEnvelope(event loan.Event) (*EventEnvelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", event.EventType(), err)
	}

	return &EventEnvelope{
		SchemaVersion: EventSchemaVersion,
		EventType:     event.EventType(),
		DedupKey:      loan.DedupKey(event),
		LoanID:        event.EventLoanID(),
		Timestamp:     event.EventTimestamp(),
		Payload:       payload,
	}, nil
}

// CommandMessage is an inbound request for a loan operation. Only the fields
// relevant to Type are read.
type CommandMessage struct {
	TraceID string             `json:"trace_id,omitempty"`
	Type    types.CommandTypes `json:"type"`

	// create_loan
	Principal           uint64  `json:"principal,omitempty"`
	RepaymentPercentage uint16  `json:"repayment_percentage,omitempty"`
	TermMonths          *uint16 `json:"term_months,omitempty"`
	CollateralType      string  `json:"collateral_type,omitempty"`
	Borrower            string  `json:"borrower,omitempty"`
	Lender              string  `json:"lender,omitempty"`

	// make_repayment, auto_repay_from_revenue, forgive_loan
	LoanID uint64 `json:"loan_id,omitempty"`
	// Amount is the repayment amount, or for forgive_loan the optional
	// amount to forgive.
	Amount *uint64 `json:"amount,omitempty"`

	// auto_repay_from_revenue
	RevenueAmount    uint64 `json:"revenue_amount,omitempty"`
	RevenueTreasury  string `json:"revenue_treasury,omitempty"`
	RevenueAuthority string `json:"revenue_authority,omitempty"`

	// forgive_loan
	Caller string `json:"caller,omitempty"`
}

func DecodeCommand(body string) (*CommandMessage, error) {
	var cmd CommandMessage
	if err := json.Unmarshal([]byte(body), &cmd); err != nil {
		return nil, fmt.Errorf("failed to decode command: %w", err)
	}

	switch cmd.Type {
	case types.CommandCreateLoan, types.CommandMakeRepayment, types.CommandAutoRepayFromRevenue, types.CommandForgiveLoan:
		return &cmd, nil
	default:
		return nil, fmt.Errorf("unknown command type %q", cmd.Type)
	}
}
