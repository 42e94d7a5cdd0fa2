package loan

import (
	"github.com/gitdigital/founder-loan-service/internal/types"
)

// The functions in this file are pure: they read the records passed in,
// never mutate them, and describe the complete outcome of one event as a
// Transition. Callers are responsible for holding exclusive access to the
// records for the duration of the call and for committing the result
// atomically.

// InitializeRequest carries the parameters of the one-time protocol setup.
type InitializeRequest struct {
	Authority      string
	Treasury       string
	ProtocolFeeBps uint16
	MinCreditScore uint16
}

// InitializeProtocol builds the protocol configuration. existing must be nil;
// a deployment is initialized exactly once.
func InitializeProtocol(existing *Protocol, req InitializeRequest) (*Protocol, error) {
	if existing != nil {
		return nil, ErrAlreadyInitialized
	}
	if req.Authority == "" || req.Treasury == "" {
		return nil, ErrInvalidIdentity
	}
	if req.ProtocolFeeBps > BasisPoints {
		return nil, ErrInvalidFeeBps
	}
	if req.MinCreditScore > MaxCreditScore {
		return nil, ErrInvalidCreditScore
	}
	return &Protocol{
		Authority:      req.Authority,
		Treasury:       req.Treasury,
		ProtocolFeeBps: req.ProtocolFeeBps,
		MinCreditScore: req.MinCreditScore,
	}, nil
}

// CreateRequest carries the terms of a new loan.
type CreateRequest struct {
	Principal           uint64
	RepaymentPercentage uint16
	TermMonths          *uint16
	CollateralType      types.CollateralType
	Borrower            string
	Lender              string
}

// ValidateCreateRequest checks the loan terms without looking at any record.
func ValidateCreateRequest(req CreateRequest) error {
	if req.RepaymentPercentage > MaxRepaymentPercentage {
		return ErrInvalidPercentage
	}
	if req.Principal < MinPrincipal {
		return ErrPrincipalTooSmall
	}
	if req.Borrower == "" || req.Lender == "" {
		return ErrInvalidIdentity
	}
	return nil
}

// CreateLoan opens a new loan. profile is nil when the borrower has never
// borrowed before; a fresh profile is created in that case.
func CreateLoan(protocol *Protocol, profile *Profile, req CreateRequest, now int64) (*Transition, error) {
	if protocol == nil {
		return nil, ErrNotInitialized
	}
	if err := ValidateCreateRequest(req); err != nil {
		return nil, err
	}

	nextProtocol := protocol.clone()
	loanID, err := checkedAdd(protocol.TotalLoansCreated, 1)
	if err != nil {
		return nil, err
	}
	nextProtocol.TotalLoansCreated = loanID
	if nextProtocol.TotalVolume, err = checkedAdd(protocol.TotalVolume, req.Principal); err != nil {
		return nil, err
	}

	var nextProfile *Profile
	if profile == nil {
		nextProfile = &Profile{
			Owner:              req.Borrower,
			CurrentCreditScore: protocol.MinCreditScore,
			LifetimeCreditHigh: protocol.MinCreditScore,
		}
	} else {
		nextProfile = profile.clone()
	}
	if nextProfile.TotalLoans, err = checkedAdd32(nextProfile.TotalLoans, 1); err != nil {
		return nil, err
	}
	if nextProfile.ActiveLoans, err = checkedAdd32(nextProfile.ActiveLoans, 1); err != nil {
		return nil, err
	}
	if nextProfile.TotalBorrowed, err = checkedAdd(nextProfile.TotalBorrowed, req.Principal); err != nil {
		return nil, err
	}

	collateral := req.CollateralType
	if collateral == "" {
		collateral = types.CollateralNone
	}

	account := &Account{
		LoanID:              loanID,
		Borrower:            req.Borrower,
		Lender:              req.Lender,
		Principal:           req.Principal,
		RepaymentPercentage: req.RepaymentPercentage,
		TermMonths:          req.TermMonths,
		CollateralType:      collateral,
		Status:              types.LoanStatusActive,
		CreditScore:         protocol.MinCreditScore,
		CreatedAt:           now,
	}

	return &Transition{
		Loan:     account,
		Profile:  nextProfile,
		Protocol: nextProtocol,
		Events: []Event{LoanCreated{
			LoanID:              loanID,
			Borrower:            req.Borrower,
			Lender:              req.Lender,
			Principal:           req.Principal,
			RepaymentPercentage: req.RepaymentPercentage,
			Timestamp:           now,
		}},
	}, nil
}

// payment is the bookkeeping shared by manual and revenue based repayments.
type payment struct {
	loan     *Account
	profile  *Profile
	oldScore uint16
	newScore uint16
	repaid   *LoanRepaid
}

func applyPayment(account *Account, profile *Profile, amount uint64, now int64) (*payment, error) {
	newScore, err := Score(account, profile, amount, now)
	if err != nil {
		return nil, err
	}

	nextLoan := account.clone()
	nextProfile := profile.clone()

	if nextLoan.AmountRepaid, err = checkedAdd(account.AmountRepaid, amount); err != nil {
		return nil, err
	}
	if nextLoan.PaymentsMade, err = checkedAdd32(account.PaymentsMade, 1); err != nil {
		return nil, err
	}
	paidAt := now
	nextLoan.LastPaymentAt = &paidAt
	nextLoan.CreditScore = newScore

	if nextProfile.TotalRepaid, err = checkedAdd(profile.TotalRepaid, amount); err != nil {
		return nil, err
	}
	nextProfile.CurrentCreditScore = newScore
	if newScore > nextProfile.LifetimeCreditHigh {
		nextProfile.LifetimeCreditHigh = newScore
	}

	p := &payment{
		loan:     nextLoan,
		profile:  nextProfile,
		oldScore: account.CreditScore,
		newScore: newScore,
	}

	if nextLoan.AmountRepaid >= nextLoan.Principal {
		nextLoan.Status = types.LoanStatusRepaid
		if nextProfile.ActiveLoans, err = checkedSub32(nextProfile.ActiveLoans, 1); err != nil {
			return nil, err
		}
		if nextProfile.CompletedLoans, err = checkedAdd32(nextProfile.CompletedLoans, 1); err != nil {
			return nil, err
		}
		p.repaid = &LoanRepaid{
			LoanID:      nextLoan.LoanID,
			Borrower:    nextLoan.Borrower,
			TotalRepaid: nextLoan.AmountRepaid,
			Timestamp:   now,
		}
	}

	return p, nil
}

// MakeRepayment applies a borrower-funded payment of amount to the loan and
// extracts the protocol fee on top of it.
func MakeRepayment(protocol *Protocol, account *Account, profile *Profile, amount uint64, now int64) (*Transition, error) {
	if protocol == nil {
		return nil, ErrNotInitialized
	}
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	if !account.IsActive() {
		return nil, ErrLoanNotActive
	}

	fee, err := BpsOf(amount, protocol.ProtocolFeeBps)
	if err != nil {
		return nil, err
	}

	p, err := applyPayment(account, profile, amount, now)
	if err != nil {
		return nil, err
	}

	transfers := []Transfer{{
		From:      account.Borrower,
		To:        account.Lender,
		Authority: account.Borrower,
		Amount:    amount,
		Purpose:   TransferPurposeRepayment,
	}}
	if fee > 0 {
		transfers = append(transfers, Transfer{
			From:      account.Borrower,
			To:        protocol.Treasury,
			Authority: account.Borrower,
			Amount:    fee,
			Purpose:   TransferPurposeFee,
		})
	}

	var events []Event
	if p.repaid != nil {
		events = append(events, *p.repaid)
	}
	events = append(events, PaymentMade{
		LoanID:             account.LoanID,
		Amount:             amount,
		Fee:                fee,
		OldCreditScore:     p.oldScore,
		NewCreditScore:     p.newScore,
		RemainingPrincipal: p.loan.Remaining(),
		PaymentNumber:      p.loan.PaymentsMade,
		Timestamp:          now,
	})

	return &Transition{
		Loan:      p.loan,
		Profile:   p.profile,
		Transfers: transfers,
		Events:    events,
	}, nil
}

// RevenueSource identifies the company treasury a revenue based repayment is
// drawn from and the identity allowed to move its funds.
type RevenueSource struct {
	Treasury  string
	Authority string
}

// AutoRepayFromRevenue applies the loan's share of a revenue event. A share
// that rounds to zero, or a loan with nothing left to repay, yields a no-op
// transition.
func AutoRepayFromRevenue(account *Account, profile *Profile, source RevenueSource, revenueAmount uint64, now int64) (*Transition, error) {
	if !account.IsActive() {
		return nil, ErrLoanNotActive
	}

	requested, err := BpsOf(revenueAmount, account.RepaymentPercentage)
	if err != nil {
		return nil, err
	}
	actual := min(requested, account.Remaining())
	if actual == 0 {
		return &Transition{}, nil
	}
	if source.Treasury == "" || source.Authority == "" {
		return nil, ErrInvalidIdentity
	}

	p, err := applyPayment(account, profile, actual, now)
	if err != nil {
		return nil, err
	}

	var events []Event
	if p.repaid != nil {
		events = append(events, *p.repaid)
	}
	events = append(events, AutoRepayment{
		LoanID:          account.LoanID,
		RevenueAmount:   revenueAmount,
		RepaymentAmount: actual,
		OldCreditScore:  p.oldScore,
		NewCreditScore:  p.newScore,
		Timestamp:       now,
	})

	return &Transition{
		Loan:    p.loan,
		Profile: p.profile,
		Transfers: []Transfer{{
			From:      source.Treasury,
			To:        account.Lender,
			Authority: source.Authority,
			Amount:    actual,
			Purpose:   TransferPurposeAutoRepayment,
		}},
		Events: events,
	}, nil
}

// ForgiveLoan writes off amount (or the whole remainder when amount is nil).
// The borrower profile is left untouched, even when the loan
// leaves the Active status.
func ForgiveLoan(account *Account, caller string, amount *uint64, now int64) (*Transition, error) {
	if caller != account.Lender {
		return nil, ErrUnauthorized
	}
	if !account.IsActive() {
		return nil, ErrLoanNotActive
	}

	forgiven := account.Remaining()
	if amount != nil {
		if *amount == 0 {
			return nil, ErrInvalidAmount
		}
		forgiven = *amount
	}

	next := account.clone()
	var err error
	if next.AmountRepaid, err = checkedAdd(account.AmountRepaid, forgiven); err != nil {
		return nil, err
	}
	if next.AmountRepaid >= next.Principal {
		next.Status = types.LoanStatusForgiven
	}
	next.CreditScore = ForgivenessScore(account.CreditScore)

	return &Transition{
		Loan: next,
		Events: []Event{LoanForgiven{
			LoanID:         account.LoanID,
			ForgivenAmount: forgiven,
			NewStatus:      next.Status,
			Timestamp:      now,
		}},
	}, nil
}
