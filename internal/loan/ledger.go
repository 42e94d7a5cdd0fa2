package loan

// Accounting names used when an event is rendered as a double-entry ledger
// line.
const (
	LedgerAccountCash         = "CASH-USDC"
	LedgerAccountLoanPayable  = "LOAN_PAYABLE-FOUNDER"
	LedgerAccountLoanForgiven = "LOAN_FORGIVENESS-INCOME"
)

type LedgerTransactionType string

const (
	LedgerLoanCreated     LedgerTransactionType = "LOAN_CREATED"
	LedgerPaymentReceived LedgerTransactionType = "PAYMENT_RECEIVED"
	LedgerLoanRepaid      LedgerTransactionType = "LOAN_REPAID"
	LedgerLoanForgiven    LedgerTransactionType = "LOAN_FORGIVEN"
)

// LedgerEntry is the accounting view of a single event, amounts in the
// smallest currency unit.
type LedgerEntry struct {
	TransactionType    LedgerTransactionType `json:"transaction_type"`
	LoanID             uint64                `json:"loan_id"`
	Amount             uint64                `json:"amount"`
	DebitAccount       string                `json:"debit_account"`
	CreditAccount      string                `json:"credit_account"`
	CreditScoreBefore  *uint16               `json:"credit_score_before,omitempty"`
	CreditScoreAfter   *uint16               `json:"credit_score_after,omitempty"`
	RemainingPrincipal *uint64               `json:"remaining_principal,omitempty"`
	PaymentNumber      *uint32               `json:"payment_number,omitempty"`
	Timestamp          int64                 `json:"timestamp"`
}

// LedgerEntryFor renders an event as a ledger line. Revenue based repayments
// are booked as received payments.
func LedgerEntryFor(e Event) LedgerEntry {
	switch ev := e.(type) {
	case LoanCreated:
		return LedgerEntry{
			TransactionType: LedgerLoanCreated,
			LoanID:          ev.LoanID,
			Amount:          ev.Principal,
			DebitAccount:    LedgerAccountCash,
			CreditAccount:   LedgerAccountLoanPayable,
			Timestamp:       ev.Timestamp,
		}
	case PaymentMade:
		return LedgerEntry{
			TransactionType:    LedgerPaymentReceived,
			LoanID:             ev.LoanID,
			Amount:             ev.Amount,
			DebitAccount:       LedgerAccountLoanPayable,
			CreditAccount:      LedgerAccountCash,
			CreditScoreBefore:  &ev.OldCreditScore,
			CreditScoreAfter:   &ev.NewCreditScore,
			RemainingPrincipal: &ev.RemainingPrincipal,
			PaymentNumber:      &ev.PaymentNumber,
			Timestamp:          ev.Timestamp,
		}
	case AutoRepayment:
		return LedgerEntry{
			TransactionType:   LedgerPaymentReceived,
			LoanID:            ev.LoanID,
			Amount:            ev.RepaymentAmount,
			DebitAccount:      LedgerAccountLoanPayable,
			CreditAccount:     LedgerAccountCash,
			CreditScoreBefore: &ev.OldCreditScore,
			CreditScoreAfter:  &ev.NewCreditScore,
			Timestamp:         ev.Timestamp,
		}
	case LoanRepaid:
		return LedgerEntry{
			TransactionType: LedgerLoanRepaid,
			LoanID:          ev.LoanID,
			Amount:          ev.TotalRepaid,
			DebitAccount:    LedgerAccountLoanPayable,
			CreditAccount:   LedgerAccountLoanPayable,
			Timestamp:       ev.Timestamp,
		}
	case LoanForgiven:
		return LedgerEntry{
			TransactionType: LedgerLoanForgiven,
			LoanID:          ev.LoanID,
			Amount:          ev.ForgivenAmount,
			DebitAccount:    LedgerAccountLoanPayable,
			CreditAccount:   LedgerAccountLoanForgiven,
			Timestamp:       ev.Timestamp,
		}
	}
	return LedgerEntry{LoanID: e.EventLoanID(), Timestamp: e.EventTimestamp()}
}
