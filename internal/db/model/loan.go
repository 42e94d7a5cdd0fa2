package model

import (
	"github.com/gitdigital/founder-loan-service/internal/loan"
	"github.com/gitdigital/founder-loan-service/internal/types"
)

type LoanDocument struct {
	LoanID              uint64               `bson:"_id"`
	Borrower            string               `bson:"borrower"`
	Lender              string               `bson:"lender"`
	Principal           uint64               `bson:"principal"`
	RepaymentPercentage uint16               `bson:"repayment_percentage"`
	TermMonths          *uint16              `bson:"term_months,omitempty"`
	CollateralType      types.CollateralType `bson:"collateral_type"`
	Status              types.LoanStatus     `bson:"status"`
	AmountRepaid        uint64               `bson:"amount_repaid"`
	PaymentsMade        uint32               `bson:"payments_made"`
	CreditScore         uint16               `bson:"credit_score"`
	CreatedAt           int64                `bson:"created_at"`
	LastPaymentAt       *int64               `bson:"last_payment_at,omitempty"`
	Version             uint64               `bson:"version"`
}

func FromAccount(a *loan.Account, version uint64) *LoanDocument {
	return &LoanDocument{
		LoanID:              a.LoanID,
		Borrower:            a.Borrower,
		Lender:              a.Lender,
		Principal:           a.Principal,
		RepaymentPercentage: a.RepaymentPercentage,
		TermMonths:          a.TermMonths,
		CollateralType:      a.CollateralType,
		Status:              a.Status,
		AmountRepaid:        a.AmountRepaid,
		PaymentsMade:        a.PaymentsMade,
		CreditScore:         a.CreditScore,
		CreatedAt:           a.CreatedAt,
		LastPaymentAt:       a.LastPaymentAt,
		Version:             version,
	}
}

func (d *LoanDocument) ToAccount() *loan.Account {
	return &loan.Account{
		LoanID:              d.LoanID,
		Borrower:            d.Borrower,
		Lender:              d.Lender,
		Principal:           d.Principal,
		RepaymentPercentage: d.RepaymentPercentage,
		TermMonths:          d.TermMonths,
		CollateralType:      d.CollateralType,
		Status:              d.Status,
		AmountRepaid:        d.AmountRepaid,
		PaymentsMade:        d.PaymentsMade,
		CreditScore:         d.CreditScore,
		CreatedAt:           d.CreatedAt,
		LastPaymentAt:       d.LastPaymentAt,
	}
}
