package types

import "fmt"

// Enum values for Loan Status
type LoanStatus string

const (
	LoanStatusActive    LoanStatus = "ACTIVE"
	LoanStatusRepaid    LoanStatus = "REPAID"
	LoanStatusDefaulted LoanStatus = "DEFAULTED"
	LoanStatusForgiven  LoanStatus = "FORGIVEN"
)

func (s LoanStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further event may mutate a loan in this status
func (s LoanStatus) IsTerminal() bool {
	switch s {
	case LoanStatusRepaid, LoanStatusDefaulted, LoanStatusForgiven:
		return true
	default:
		return false
	}
}

func LoanStatusFromString(s string) (LoanStatus, error) {
	switch LoanStatus(s) {
	case LoanStatusActive, LoanStatusRepaid, LoanStatusDefaulted, LoanStatusForgiven:
		return LoanStatus(s), nil
	default:
		return "", fmt.Errorf("invalid loan status: %s", s)
	}
}

// QualifiedStatesForRepayment returns the statuses a loan may be in when a
// repayment (manual or revenue based) is applied
func QualifiedStatesForRepayment() []LoanStatus {
	return []LoanStatus{LoanStatusActive}
}

// QualifiedStatesForForgiveness returns the statuses a loan may be in when the
// lender forgives part of it
func QualifiedStatesForForgiveness() []LoanStatus {
	return []LoanStatus{LoanStatusActive}
}

type CollateralType string

const (
	CollateralNone         CollateralType = "NONE"
	CollateralTokenAccount CollateralType = "TOKEN_ACCOUNT"
	CollateralNFT          CollateralType = "NFT"
	CollateralRevenueShare CollateralType = "REVENUE_SHARE"
	CollateralMixed        CollateralType = "MIXED"
)

func (c CollateralType) String() string {
	return string(c)
}

func CollateralTypeFromString(s string) (CollateralType, error) {
	switch CollateralType(s) {
	case CollateralNone, CollateralTokenAccount, CollateralNFT, CollateralRevenueShare, CollateralMixed:
		return CollateralType(s), nil
	case "":
		return CollateralNone, nil
	default:
		return "", fmt.Errorf("invalid collateral type: %s", s)
	}
}
