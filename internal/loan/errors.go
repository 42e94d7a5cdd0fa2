package loan

import "errors"

var (
	ErrInvalidPercentage  = errors.New("loan: invalid repayment percentage")
	ErrPrincipalTooSmall  = errors.New("loan: principal amount too small")
	ErrInvalidAmount      = errors.New("loan: invalid payment amount")
	ErrLoanNotActive      = errors.New("loan: loan is not active")
	ErrUnauthorized       = errors.New("loan: unauthorized")
	ErrOverflow           = errors.New("loan: arithmetic overflow")
	ErrDivideByZero       = errors.New("loan: division by zero")
	ErrAlreadyInitialized = errors.New("loan: protocol already initialized")
	ErrNotInitialized     = errors.New("loan: protocol not initialized")
	ErrInvalidFeeBps      = errors.New("loan: protocol fee exceeds 10000 bps")
	ErrInvalidCreditScore = errors.New("loan: credit score exceeds ceiling")
	ErrInvalidIdentity    = errors.New("loan: invalid identity")
)
