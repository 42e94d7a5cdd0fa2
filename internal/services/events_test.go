package services

import (
	"errors"
	"testing"
	"time"

	"github.com/gitdigital/founder-loan-service/internal/clients/metadataclient"
	"github.com/gitdigital/founder-loan-service/internal/loan"
	"github.com/gitdigital/founder-loan-service/internal/types"
	"github.com/gitdigital/founder-loan-service/tests/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEventPublishing(t *testing.T) {
	ctx := t.Context()
	// the service derives its own contexts from the one passed in
	internalCtx := mock.Anything

	t.Run("published after commit", func(t *testing.T) {
		publisher := mocks.NewEventPublisher(t)
		f := newFixture(t, publisher, nil)
		f.initialize(t)

		publisher.On("PushLoanEvent", internalCtx, loan.LoanCreated{
			LoanID:              1,
			Borrower:            f.borrower,
			Lender:              f.lender,
			Principal:           principal100,
			RepaymentPercentage: 1_000,
			Timestamp:           startTime,
		}).Return(nil).Once()

		f.createLoan(t, principal100, 1_000)

		pending, err := f.db.GetUnpublishedLoanEvents(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})
	t.Run("failed publication is relayed", func(t *testing.T) {
		publisher := mocks.NewEventPublisher(t)
		f := newFixture(t, publisher, nil)
		f.initialize(t)

		publisher.On("PushLoanEvent", internalCtx, mock.AnythingOfType("loan.LoanCreated")).
			Return(errors.New("queue unavailable")).Once()
		f.createLoan(t, principal100, 1_000)

		pending, err := f.db.GetUnpublishedLoanEvents(ctx, 0)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, "1:LoanCreated:1700000000", pending[0].DedupKey)

		// too fresh for the relay
		require.Nil(t, f.srv.RelayUnpublishedEvents(ctx))

		f.advance(time.Minute)
		publisher.On("PushLoanEvent", internalCtx, mock.AnythingOfType("loan.LoanCreated")).
			Return(nil).Once()
		require.Nil(t, f.srv.RelayUnpublishedEvents(ctx))

		pending, err = f.db.GetUnpublishedLoanEvents(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})
	t.Run("events of one loan are published in order", func(t *testing.T) {
		publisher := mocks.NewEventPublisher(t)
		f := newFixture(t, publisher, nil)
		f.initialize(t)

		var published []types.EventTypes
		publisher.On("PushLoanEvent", internalCtx, mock.Anything).
			Run(func(args mock.Arguments) {
				published = append(published, args.Get(1).(loan.Event).EventType())
			}).
			Return(nil)

		f.createLoan(t, principal100, 1_000)
		f.fund(t, f.borrower, 2*principal100, "")
		_, err := f.srv.MakeRepayment(ctx, 1, principal100)
		require.Nil(t, err)

		assert.Equal(t, []types.EventTypes{
			types.EventLoanCreated,
			types.EventLoanRepaid,
			types.EventPaymentMade,
		}, published)
	})
	t.Run("relay stops at the first failure", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		f.initialize(t)
		f.createLoan(t, principal100, 1_000)
		f.fund(t, f.borrower, 2*principal100, "")
		f.advance(day)
		_, err := f.srv.MakeRepayment(ctx, 1, principal100)
		require.Nil(t, err)

		// events were recorded without a publisher
		pending, dbErr := f.db.GetUnpublishedLoanEvents(ctx, 0)
		require.NoError(t, dbErr)
		require.Len(t, pending, 3)

		publisher := mocks.NewEventPublisher(t)
		f.srv.publisher = publisher
		f.advance(time.Minute)
		publisher.On("PushLoanEvent", internalCtx, mock.AnythingOfType("loan.LoanCreated")).Return(nil).Once()
		publisher.On("PushLoanEvent", internalCtx, mock.AnythingOfType("loan.LoanRepaid")).
			Return(errors.New("queue unavailable")).Once()

		relayErr := f.srv.RelayUnpublishedEvents(ctx)
		require.NotNil(t, relayErr)

		pending, dbErr = f.db.GetUnpublishedLoanEvents(ctx, 0)
		require.NoError(t, dbErr)
		require.Len(t, pending, 2)
		assert.Equal(t, types.EventLoanRepaid, pending[0].Type)
		assert.Equal(t, types.EventPaymentMade, pending[1].Type)
	})
}

func TestMetadataNotifier(t *testing.T) {
	ctx := t.Context()

	t.Run("pushes the visual tier", func(t *testing.T) {
		metadata := mocks.NewMetadataInterface(t)
		f := newFixture(t, nil, metadata)
		f.initialize(t)

		metadata.On("UpdateLoanMetadata", mock.Anything, metadataclient.LoanMetadata{
			LoanID:      1,
			Principal:   principal100,
			CreditScore: testMinScore,
			Status:      types.LoanStatusActive.String(),
			VisualTier:  loan.TierSeed.String(),
		}).Return(nil).Once()
		metadata.On("UpdateLoanMetadata", mock.Anything, metadataclient.LoanMetadata{
			LoanID:               1,
			Principal:            principal100,
			Repaid:               principal100,
			CreditScore:          testMinScore + loan.ForgivenessScoreBonus,
			Status:               types.LoanStatusForgiven.String(),
			VisualTier:           loan.TierForgiven.String(),
			RepaymentProgressBps: loan.BasisPoints,
		}).Return(nil).Once()

		f.createLoan(t, principal100, 1_000)
		_, err := f.srv.ForgiveLoan(ctx, 1, f.lender, nil)
		require.Nil(t, err)
	})
	t.Run("failures do not fail the operation", func(t *testing.T) {
		metadata := mocks.NewMetadataInterface(t)
		f := newFixture(t, nil, metadata)
		f.initialize(t)

		metadata.On("UpdateLoanMetadata", mock.Anything, mock.Anything).
			Return(errors.New("metadata service down")).Once()

		account := f.createLoan(t, principal100, 1_000)
		assert.Equal(t, uint64(1), account.LoanID)
	})
	t.Run("no push without a loan change", func(t *testing.T) {
		metadata := mocks.NewMetadataInterface(t)
		f := newFixture(t, nil, metadata)
		f.initialize(t)
		// protocol initialization and a zero revenue share push nothing
		metadata.On("UpdateLoanMetadata", mock.Anything, mock.Anything).Return(nil).Once()
		f.createLoan(t, principal100, 1_000)

		source := loan.RevenueSource{Treasury: identity(t), Authority: identity(t)}
		_, err := f.srv.AutoRepayFromRevenue(ctx, 1, source, 1)
		require.Nil(t, err)
	})
}

func TestMetadataFor(t *testing.T) {
	account := &loan.Account{
		LoanID:       3,
		Principal:    principal100,
		AmountRepaid: payment50,
		CreditScore:  760,
		Status:       types.LoanStatusActive,
	}

	metadata := MetadataFor(account)
	assert.Equal(t, uint64(5_000), metadata.RepaymentProgressBps)
	// half repaid is growth, a score of 750 or more lifts it one tier
	assert.Equal(t, loan.TierBloom.String(), metadata.VisualTier)
	assert.Equal(t, "ACTIVE", metadata.Status)
}
