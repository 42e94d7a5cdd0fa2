package services

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gitdigital/founder-loan-service/internal/loan"
	"github.com/gitdigital/founder-loan-service/internal/types"
	"github.com/gitdigital/founder-loan-service/pkg"
	"github.com/gitdigital/founder-loan-service/tests/mocks"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	principal100 = uint64(100_000_000)
	payment50    = uint64(50_000_000)
)

func TestInitializeProtocol(t *testing.T) {
	ctx := t.Context()

	t.Run("from config", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		protocol := f.initialize(t)
		assert.Equal(t, f.authority, protocol.Authority)
		assert.Equal(t, f.treasury, protocol.Treasury)
		assert.Equal(t, testFeeBps, protocol.ProtocolFeeBps)
		assert.Equal(t, testMinScore, protocol.MinCreditScore)

		stored, err := f.srv.GetProtocol(ctx)
		require.Nil(t, err)
		assert.Equal(t, protocol, stored)
	})
	t.Run("only once", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		f.initialize(t)

		_, err := f.srv.InitializeProtocol(ctx, loan.InitializeRequest{
			Authority:      f.authority,
			Treasury:       f.treasury,
			ProtocolFeeBps: 100,
		})
		require.NotNil(t, err)
		assert.Equal(t, types.AlreadyInitialized, err.ErrorCode)
		assert.Equal(t, http.StatusConflict, err.StatusCode)

		stored, getErr := f.srv.GetProtocol(ctx)
		require.Nil(t, getErr)
		assert.Equal(t, testFeeBps, stored.ProtocolFeeBps)
	})
	t.Run("invalid identity", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		_, err := f.srv.InitializeProtocol(ctx, loan.InitializeRequest{Authority: "not-base58!", Treasury: f.treasury})
		require.NotNil(t, err)
		assert.Equal(t, types.ValidationError, err.ErrorCode)
	})
	t.Run("fee above 100%", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		_, err := f.srv.InitializeProtocol(ctx, loan.InitializeRequest{
			Authority:      f.authority,
			Treasury:       f.treasury,
			ProtocolFeeBps: 10_001,
		})
		require.NotNil(t, err)
		assert.ErrorIs(t, err, loan.ErrInvalidFeeBps)

		_, getErr := f.srv.GetProtocol(ctx)
		require.NotNil(t, getErr)
		assert.Equal(t, types.NotInitialized, getErr.ErrorCode)
	})
}

func TestCreateLoan(t *testing.T) {
	ctx := t.Context()

	t.Run("not initialized", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		_, err := f.srv.CreateLoan(ctx, loan.CreateRequest{
			Principal: principal100,
			Borrower:  f.borrower,
			Lender:    f.lender,
		})
		require.NotNil(t, err)
		assert.Equal(t, types.NotInitialized, err.ErrorCode)
	})
	t.Run("creates loan and profile", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		f.initialize(t)

		account := f.createLoan(t, principal100, 1_000)
		assert.Equal(t, uint64(1), account.LoanID)
		assert.Equal(t, types.LoanStatusActive, account.Status)
		assert.Equal(t, testMinScore, account.CreditScore)
		assert.Equal(t, types.CollateralNone, account.CollateralType)
		assert.Zero(t, account.AmountRepaid)
		assert.Equal(t, startTime, account.CreatedAt)
		assert.Equal(t, account, f.loan(t, 1))

		profile := f.profile(t)
		assert.Equal(t, uint32(1), profile.TotalLoans)
		assert.Equal(t, uint32(1), profile.ActiveLoans)
		assert.Equal(t, principal100, profile.TotalBorrowed)
		assert.Equal(t, testMinScore, profile.CurrentCreditScore)

		protocol, err := f.srv.GetProtocol(ctx)
		require.Nil(t, err)
		assert.Equal(t, uint64(1), protocol.TotalLoansCreated)
		assert.Equal(t, principal100, protocol.TotalVolume)

		assert.Equal(t, []types.EventTypes{types.EventLoanCreated}, f.eventTypes(t, 1))
	})
	t.Run("second loan reuses profile", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		f.initialize(t)
		f.createLoan(t, principal100, 1_000)
		second := f.createLoan(t, 2*principal100, 500)
		assert.Equal(t, uint64(2), second.LoanID)

		profile := f.profile(t)
		assert.Equal(t, uint32(2), profile.TotalLoans)
		assert.Equal(t, uint32(2), profile.ActiveLoans)
		assert.Equal(t, 3*principal100, profile.TotalBorrowed)

		loans, err := f.srv.GetBorrowerLoans(ctx, f.borrower)
		require.Nil(t, err)
		require.Len(t, loans, 2)
		assert.Equal(t, uint64(1), loans[0].LoanID)
		assert.Equal(t, uint64(2), loans[1].LoanID)
	})
	t.Run("rejected terms leave no record", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		f.initialize(t)

		_, err := f.srv.CreateLoan(ctx, loan.CreateRequest{
			Principal: loan.MinPrincipal - 1,
			Borrower:  f.borrower,
			Lender:    f.lender,
		})
		require.NotNil(t, err)
		assert.Equal(t, types.PrincipalTooSmall, err.ErrorCode)

		_, err = f.srv.CreateLoan(ctx, loan.CreateRequest{
			Principal:           principal100,
			RepaymentPercentage: 5_001,
			Borrower:            f.borrower,
			Lender:              f.lender,
		})
		require.NotNil(t, err)
		assert.Equal(t, types.InvalidPercentage, err.ErrorCode)

		_, err = f.srv.GetBorrower(ctx, f.borrower)
		require.NotNil(t, err)
		assert.Equal(t, types.NotFound, err.ErrorCode)
		protocol, err := f.srv.GetProtocol(ctx)
		require.Nil(t, err)
		assert.Zero(t, protocol.TotalLoansCreated)
	})
	t.Run("concurrent creations get distinct ids", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		f.initialize(t)

		const n = 8
		borrowers := make([]string, n)
		for i := range borrowers {
			borrowers[i] = identity(t)
		}

		var wg conc.WaitGroup
		ids := make([]uint64, n)
		for i := range n {
			wg.Go(func() {
				account, err := f.srv.CreateLoan(ctx, loan.CreateRequest{
					Principal: principal100,
					Borrower:  borrowers[i],
					Lender:    f.lender,
				})
				if assert.Nil(t, err) {
					ids[i] = account.LoanID
				}
			})
		}
		wg.Wait()

		assert.ElementsMatch(t, []uint64{1, 2, 3, 4, 5, 6, 7, 8}, ids)
		protocol, err := f.srv.GetProtocol(ctx)
		require.Nil(t, err)
		assert.Equal(t, uint64(n), protocol.TotalLoansCreated)
		assert.Equal(t, n*principal100, protocol.TotalVolume)
	})
}

func TestMakeRepayment(t *testing.T) {
	ctx := t.Context()

	t.Run("two halves repay the loan", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		f.initialize(t)
		f.createLoan(t, principal100, 1_000)
		f.fund(t, f.borrower, 2*principal100, "")

		f.advance(day)
		account, err := f.srv.MakeRepayment(ctx, 1, payment50)
		require.Nil(t, err)
		assert.Equal(t, testMinScore+50, account.CreditScore)
		assert.Equal(t, types.LoanStatusActive, account.Status)
		assert.Equal(t, payment50, account.AmountRepaid)
		assert.Equal(t, uint32(1), account.PaymentsMade)

		// 50 bps fee on top of the payment
		assert.Equal(t, payment50, f.balance(t, f.lender))
		assert.Equal(t, uint64(250_000), f.balance(t, f.treasury))
		assert.Equal(t, 2*principal100-payment50-250_000, f.balance(t, f.borrower))

		f.advance(10 * day)
		account, err = f.srv.MakeRepayment(ctx, 1, payment50)
		require.Nil(t, err)
		assert.Equal(t, testMinScore+105, account.CreditScore)
		assert.Equal(t, types.LoanStatusRepaid, account.Status)
		assert.Equal(t, principal100, account.AmountRepaid)

		profile := f.profile(t)
		assert.Zero(t, profile.ActiveLoans)
		assert.Equal(t, uint32(1), profile.CompletedLoans)
		assert.Equal(t, principal100, profile.TotalRepaid)
		assert.Equal(t, testMinScore+105, profile.CurrentCreditScore)
		assert.Equal(t, testMinScore+105, profile.LifetimeCreditHigh)

		assert.Equal(t, []types.EventTypes{
			types.EventLoanCreated,
			types.EventPaymentMade,
			types.EventLoanRepaid,
			types.EventPaymentMade,
		}, f.eventTypes(t, 1))

		_, err = f.srv.MakeRepayment(ctx, 1, 1)
		require.NotNil(t, err)
		assert.Equal(t, types.LoanNotActive, err.ErrorCode)
		assert.Equal(t, account, f.loan(t, 1))
	})
	t.Run("unknown loan", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		f.initialize(t)

		_, err := f.srv.MakeRepayment(ctx, 42, 1)
		require.NotNil(t, err)
		assert.Equal(t, types.NotFound, err.ErrorCode)
	})
	t.Run("zero amount", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		f.initialize(t)
		f.createLoan(t, principal100, 1_000)

		_, err := f.srv.MakeRepayment(ctx, 1, 0)
		require.NotNil(t, err)
		assert.Equal(t, types.InvalidAmount, err.ErrorCode)
	})
	t.Run("failed fee transfer rolls back the payment", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		f.initialize(t)
		before := f.createLoan(t, principal100, 1_000)
		// covers the payment but not the fee
		f.fund(t, f.borrower, payment50, "")

		_, err := f.srv.MakeRepayment(ctx, 1, payment50)
		require.NotNil(t, err)
		assert.Equal(t, types.TransferFailed, err.ErrorCode)

		assert.Equal(t, before, f.loan(t, 1))
		assert.Equal(t, payment50, f.balance(t, f.borrower))
		assert.Zero(t, f.balance(t, f.lender))
		assert.Equal(t, []types.EventTypes{types.EventLoanCreated}, f.eventTypes(t, 1))
	})
	t.Run("store failure rolls back transfers", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		f.initialize(t)
		before := f.createLoan(t, principal100, 1_000)
		f.fund(t, f.borrower, principal100, "")
		f.db.FailOn("SaveLoanEvents", errors.New("write conflict"))

		_, err := f.srv.MakeRepayment(ctx, 1, payment50)
		require.NotNil(t, err)
		assert.Equal(t, types.InternalServiceError, err.ErrorCode)

		f.db.FailOn("SaveLoanEvents", nil)
		assert.Equal(t, before, f.loan(t, 1))
		assert.Equal(t, principal100, f.balance(t, f.borrower))
		assert.Zero(t, f.profile(t).TotalRepaid)
	})
	t.Run("concurrent payments are serialized", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		f.initialize(t)
		f.createLoan(t, principal100, 1_000)
		f.fund(t, f.borrower, principal100, "")

		const n = 10
		var wg conc.WaitGroup
		for range n {
			wg.Go(func() {
				_, err := f.srv.MakeRepayment(ctx, 1, 1_000_000)
				assert.Nil(t, err)
			})
		}
		wg.Wait()

		account := f.loan(t, 1)
		assert.Equal(t, uint64(n*1_000_000), account.AmountRepaid)
		assert.Equal(t, uint32(n), account.PaymentsMade)
		assert.Equal(t, uint64(n*1_000_000), f.profile(t).TotalRepaid)
	})
}

func TestAutoRepayFromRevenue(t *testing.T) {
	ctx := t.Context()

	setup := func(t *testing.T) (*fixture, loan.RevenueSource) {
		f := newFixture(t, nil, nil)
		f.initialize(t)
		f.createLoan(t, principal100, 1_000)

		source := loan.RevenueSource{Treasury: identity(t), Authority: identity(t)}
		f.fund(t, source.Treasury, 10*principal100, source.Authority)
		return f, source
	}

	t.Run("applies the revenue share", func(t *testing.T) {
		f, source := setup(t)

		account, err := f.srv.AutoRepayFromRevenue(ctx, 1, source, 200_000_000)
		require.Nil(t, err)
		assert.Equal(t, uint64(20_000_000), account.AmountRepaid)
		assert.Equal(t, testMinScore+20, account.CreditScore)
		assert.Equal(t, uint64(20_000_000), f.balance(t, f.lender))
		// no protocol fee on revenue based repayments
		assert.Zero(t, f.balance(t, f.treasury))
		assert.Equal(t, []types.EventTypes{types.EventLoanCreated, types.EventAutoRepayment}, f.eventTypes(t, 1))
	})
	t.Run("share is capped at the remainder", func(t *testing.T) {
		f, source := setup(t)

		account, err := f.srv.AutoRepayFromRevenue(ctx, 1, source, 5*principal100*2)
		require.Nil(t, err)
		assert.Equal(t, principal100, account.AmountRepaid)
		assert.Equal(t, types.LoanStatusRepaid, account.Status)
		assert.Equal(t, principal100, f.balance(t, f.lender))

		profile := f.profile(t)
		assert.Zero(t, profile.ActiveLoans)
		assert.Equal(t, uint32(1), profile.CompletedLoans)
		assert.Equal(t, []types.EventTypes{
			types.EventLoanCreated,
			types.EventLoanRepaid,
			types.EventAutoRepayment,
		}, f.eventTypes(t, 1))
	})
	t.Run("share rounding to zero is a no-op", func(t *testing.T) {
		f, source := setup(t)
		before := f.loan(t, 1)

		account, err := f.srv.AutoRepayFromRevenue(ctx, 1, source, 9)
		require.Nil(t, err)
		assert.Equal(t, before, account)
		assert.Equal(t, before, f.loan(t, 1))
		assert.Equal(t, []types.EventTypes{types.EventLoanCreated}, f.eventTypes(t, 1))
	})
	t.Run("authority must be allowed to move treasury funds", func(t *testing.T) {
		f, source := setup(t)
		source.Authority = identity(t)

		_, err := f.srv.AutoRepayFromRevenue(ctx, 1, source, 200_000_000)
		require.NotNil(t, err)
		assert.Equal(t, types.TransferFailed, err.ErrorCode)
		assert.Zero(t, f.loan(t, 1).AmountRepaid)
	})
	t.Run("malformed treasury", func(t *testing.T) {
		f, source := setup(t)
		source.Treasury = "0OIl"

		_, err := f.srv.AutoRepayFromRevenue(ctx, 1, source, 200_000_000)
		require.NotNil(t, err)
		assert.Equal(t, types.ValidationError, err.ErrorCode)
	})
}

func TestForgiveLoan(t *testing.T) {
	ctx := t.Context()

	t.Run("lender forgives the remainder", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		f.initialize(t)
		f.createLoan(t, principal100, 1_000)
		profileBefore := f.profile(t)

		account, err := f.srv.ForgiveLoan(ctx, 1, f.lender, nil)
		require.Nil(t, err)
		assert.Equal(t, types.LoanStatusForgiven, account.Status)
		assert.Equal(t, principal100, account.AmountRepaid)
		assert.Equal(t, testMinScore+loan.ForgivenessScoreBonus, account.CreditScore)

		// forgiveness does not touch the borrower profile, the loan stays
		// counted as active there
		assert.Equal(t, profileBefore, f.profile(t))
		assert.Equal(t, []types.EventTypes{types.EventLoanCreated, types.EventLoanForgiven}, f.eventTypes(t, 1))
	})
	t.Run("partial forgiveness keeps the loan active", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		f.initialize(t)
		f.createLoan(t, principal100, 1_000)

		account, err := f.srv.ForgiveLoan(ctx, 1, f.lender, pkg.Ptr(uint64(10_000_000)))
		require.Nil(t, err)
		assert.Equal(t, types.LoanStatusActive, account.Status)
		assert.Equal(t, uint64(10_000_000), account.AmountRepaid)
	})
	t.Run("only the lender", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		f.initialize(t)
		before := f.createLoan(t, principal100, 1_000)

		_, err := f.srv.ForgiveLoan(ctx, 1, f.borrower, nil)
		require.NotNil(t, err)
		assert.Equal(t, types.Unauthorized, err.ErrorCode)
		assert.Equal(t, http.StatusForbidden, err.StatusCode)
		assert.Equal(t, before, f.loan(t, 1))
	})
	t.Run("terminal loan", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		f.initialize(t)
		f.createLoan(t, principal100, 1_000)
		_, err := f.srv.ForgiveLoan(ctx, 1, f.lender, nil)
		require.Nil(t, err)

		_, err = f.srv.ForgiveLoan(ctx, 1, f.lender, nil)
		require.NotNil(t, err)
		assert.Equal(t, types.LoanNotActive, err.ErrorCode)
	})
}

func TestRepaymentTransfers(t *testing.T) {
	ctx := t.Context()
	internalCtx := mock.Anything

	t.Run("payment then fee", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		f.initialize(t)
		f.createLoan(t, principal100, 1_000)

		token := mocks.NewTokenInterface(t)
		f.srv.token = token
		payment := token.On("Transfer", internalCtx, loan.Transfer{
			From:      f.borrower,
			To:        f.lender,
			Authority: f.borrower,
			Amount:    payment50,
			Purpose:   loan.TransferPurposeRepayment,
		}).Return(nil).Once()
		token.On("Transfer", internalCtx, loan.Transfer{
			From:      f.borrower,
			To:        f.treasury,
			Authority: f.borrower,
			Amount:    250_000,
			Purpose:   loan.TransferPurposeFee,
		}).Return(nil).Once().NotBefore(payment)

		account, err := f.srv.MakeRepayment(ctx, 1, payment50)
		require.Nil(t, err)
		assert.Equal(t, payment50, account.AmountRepaid)
	})
	t.Run("backend failure persists nothing", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		f.initialize(t)
		before := f.createLoan(t, principal100, 1_000)

		token := mocks.NewTokenInterface(t)
		f.srv.token = token
		token.On("Transfer", internalCtx, mock.AnythingOfType("loan.Transfer")).
			Return(errors.New("ledger unavailable")).Once()

		_, err := f.srv.MakeRepayment(ctx, 1, payment50)
		require.NotNil(t, err)
		assert.Equal(t, types.TransferFailed, err.ErrorCode)
		assert.Equal(t, before, f.loan(t, 1))
		assert.Equal(t, []types.EventTypes{types.EventLoanCreated}, f.eventTypes(t, 1))
	})
}
