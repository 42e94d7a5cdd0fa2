package loan

import "github.com/gitdigital/founder-loan-service/internal/types"

const (
	// MinPrincipal is $100 expressed in a 6-decimal unit.
	MinPrincipal uint64 = 100_000_000
	// MaxRepaymentPercentage caps the revenue share at 50%.
	MaxRepaymentPercentage uint16 = 5_000
	// MaxCreditScore is the ceiling no score may exceed.
	MaxCreditScore uint16 = 850
	// ForgivenessScoreBonus is the flat score reward for a forgiveness event.
	ForgivenessScoreBonus uint16 = 25
	// ConsistencyWindowSeconds is the window (~1 month) in which a follow-up
	// payment earns the consistency bonus.
	ConsistencyWindowSeconds int64 = 86_400 * 35
	ConsistencyBonus         uint64 = 5
	HistoryBonusPerLoan      uint64 = 10
)

// Protocol is the process-wide configuration and running totals.
type Protocol struct {
	Authority         string
	Treasury          string
	ProtocolFeeBps    uint16
	MinCreditScore    uint16
	TotalLoansCreated uint64
	TotalVolume       uint64
}

// Profile aggregates a borrower's history across loans.
type Profile struct {
	Owner              string
	TotalLoans         uint32
	ActiveLoans        uint32
	CompletedLoans     uint32
	TotalBorrowed      uint64
	TotalRepaid        uint64
	CurrentCreditScore uint16
	LifetimeCreditHigh uint16
}

// Account is the state of a single loan.
type Account struct {
	LoanID              uint64
	Borrower            string
	Lender              string
	Principal           uint64
	RepaymentPercentage uint16
	TermMonths          *uint16
	CollateralType      types.CollateralType
	Status              types.LoanStatus
	AmountRepaid        uint64
	PaymentsMade        uint32
	CreditScore         uint16
	CreatedAt           int64
	LastPaymentAt       *int64
}

// Remaining returns the principal still outstanding, saturating at zero.
func (a *Account) Remaining() uint64 {
	return saturatingSub(a.Principal, a.AmountRepaid)
}

func (a *Account) IsActive() bool {
	return a.Status == types.LoanStatusActive
}

func (a *Account) clone() *Account {
	c := *a
	if a.TermMonths != nil {
		v := *a.TermMonths
		c.TermMonths = &v
	}
	if a.LastPaymentAt != nil {
		v := *a.LastPaymentAt
		c.LastPaymentAt = &v
	}
	return &c
}

func (p *Profile) clone() *Profile {
	c := *p
	return &c
}

func (p *Protocol) clone() *Protocol {
	c := *p
	return &c
}

// Transfer describes a fund movement the transfer primitive must perform
// before a transition may be committed.
type Transfer struct {
	From      string
	To        string
	Authority string
	Amount    uint64
	// Purpose labels the transfer for logging and metrics.
	Purpose string
}

const (
	TransferPurposeRepayment     = "repayment"
	TransferPurposeFee           = "protocol_fee"
	TransferPurposeAutoRepayment = "auto_repayment"
)

// Transition is the full result of applying one event to the records it
// touches. Nil records were not modified. Transfers must all succeed before any
// record is persisted.
type Transition struct {
	Loan      *Account
	Profile   *Profile
	Protocol  *Protocol
	Transfers []Transfer
	Events    []Event
}

// IsNoop reports whether the transition leaves every record untouched.
func (t *Transition) IsNoop() bool {
	return t.Loan == nil && t.Profile == nil && t.Protocol == nil &&
		len(t.Transfers) == 0 && len(t.Events) == 0
}
