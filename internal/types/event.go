package types

type EventTypes string

func (e EventTypes) String() string {
	return string(e)
}

const (
	EventLoanCreated   EventTypes = "LoanCreated"
	EventPaymentMade   EventTypes = "PaymentMade"
	EventLoanRepaid    EventTypes = "LoanRepaid"
	EventLoanForgiven  EventTypes = "LoanForgiven"
	EventAutoRepayment EventTypes = "AutoRepayment"
)

// CommandTypes name the inbound requests that drive a loan transition
type CommandTypes string

func (c CommandTypes) String() string {
	return string(c)
}

const (
	CommandCreateLoan           CommandTypes = "create_loan"
	CommandMakeRepayment        CommandTypes = "make_repayment"
	CommandAutoRepayFromRevenue CommandTypes = "auto_repay_from_revenue"
	CommandForgiveLoan          CommandTypes = "forgive_loan"
)
