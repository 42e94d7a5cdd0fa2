package loan

import (
	"fmt"

	"github.com/gitdigital/founder-loan-service/internal/types"
)

// Event is a domain event produced by a transition. Events are a side channel:
// they are recorded and published after the records they describe are
// committed and never decide whether a transition succeeds.
type Event interface {
	EventType() types.EventTypes
	EventLoanID() uint64
	EventTimestamp() int64
}

// DedupKey identifies an event for idempotent consumers.
func DedupKey(e Event) string {
	return fmt.Sprintf("%d:%s:%d", e.EventLoanID(), e.EventType(), e.EventTimestamp())
}

type LoanCreated struct {
	LoanID              uint64 `json:"loan_id" bson:"loan_id"`
	Borrower            string `json:"borrower" bson:"borrower"`
	Lender              string `json:"lender" bson:"lender"`
	Principal           uint64 `json:"principal" bson:"principal"`
	RepaymentPercentage uint16 `json:"repayment_percentage" bson:"repayment_percentage"`
	Timestamp           int64  `json:"timestamp" bson:"timestamp"`
}

func (LoanCreated) EventType() types.EventTypes { return types.EventLoanCreated }
func (e LoanCreated) EventLoanID() uint64       { return e.LoanID }
func (e LoanCreated) EventTimestamp() int64     { return e.Timestamp }

type PaymentMade struct {
	LoanID             uint64 `json:"loan_id" bson:"loan_id"`
	Amount             uint64 `json:"amount" bson:"amount"`
	Fee                uint64 `json:"fee" bson:"fee"`
	OldCreditScore     uint16 `json:"old_credit_score" bson:"old_credit_score"`
	NewCreditScore     uint16 `json:"new_credit_score" bson:"new_credit_score"`
	RemainingPrincipal uint64 `json:"remaining_principal" bson:"remaining_principal"`
	PaymentNumber      uint32 `json:"payment_number" bson:"payment_number"`
	Timestamp          int64  `json:"timestamp" bson:"timestamp"`
}

func (PaymentMade) EventType() types.EventTypes { return types.EventPaymentMade }
func (e PaymentMade) EventLoanID() uint64       { return e.LoanID }
func (e PaymentMade) EventTimestamp() int64     { return e.Timestamp }

type LoanRepaid struct {
	LoanID      uint64 `json:"loan_id" bson:"loan_id"`
	Borrower    string `json:"borrower" bson:"borrower"`
	TotalRepaid uint64 `json:"total_repaid" bson:"total_repaid"`
	Timestamp   int64  `json:"timestamp" bson:"timestamp"`
}

func (LoanRepaid) EventType() types.EventTypes { return types.EventLoanRepaid }
func (e LoanRepaid) EventLoanID() uint64       { return e.LoanID }
func (e LoanRepaid) EventTimestamp() int64     { return e.Timestamp }

type LoanForgiven struct {
	LoanID         uint64           `json:"loan_id" bson:"loan_id"`
	ForgivenAmount uint64           `json:"forgiven_amount" bson:"forgiven_amount"`
	NewStatus      types.LoanStatus `json:"new_status" bson:"new_status"`
	Timestamp      int64            `json:"timestamp" bson:"timestamp"`
}

func (LoanForgiven) EventType() types.EventTypes { return types.EventLoanForgiven }
func (e LoanForgiven) EventLoanID() uint64       { return e.LoanID }
func (e LoanForgiven) EventTimestamp() int64     { return e.Timestamp }

type AutoRepayment struct {
	LoanID          uint64 `json:"loan_id" bson:"loan_id"`
	RevenueAmount   uint64 `json:"revenue_amount" bson:"revenue_amount"`
	RepaymentAmount uint64 `json:"repayment_amount" bson:"repayment_amount"`
	OldCreditScore  uint16 `json:"old_credit_score" bson:"old_credit_score"`
	NewCreditScore  uint16 `json:"new_credit_score" bson:"new_credit_score"`
	Timestamp       int64  `json:"timestamp" bson:"timestamp"`
}

func (AutoRepayment) EventType() types.EventTypes { return types.EventAutoRepayment }
func (e AutoRepayment) EventLoanID() uint64       { return e.LoanID }
func (e AutoRepayment) EventTimestamp() int64     { return e.Timestamp }
