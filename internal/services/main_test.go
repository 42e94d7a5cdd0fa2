//go:build integration

package services

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/gitdigital/founder-loan-service/internal/clients/tokenclient"
	"github.com/gitdigital/founder-loan-service/internal/db"
	"github.com/gitdigital/founder-loan-service/internal/db/model"
	"github.com/gitdigital/founder-loan-service/internal/types"
	"github.com/gitdigital/founder-loan-service/testutil"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var testDB *db.Database

// mongo connected to test database, used for truncating collections
var mongoDB *mongo.Database

func TestMain(m *testing.M) {
	dbConfig, cleanup, err := testutil.SetupMongoContainer()
	if err != nil {
		log.Fatalf("failed to setup mongo container: %v", err)
	}

	err = model.Setup(context.Background(), dbConfig)
	if err != nil {
		cleanup()
		log.Fatalf("failed to init mongo database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	testDB, err = db.New(ctx, *dbConfig)
	cancel()
	if err != nil {
		cleanup()
		log.Fatalf("failed to setup client: %v", err)
	}

	mongoDB, err = testutil.ConnectMongo(dbConfig)
	if err != nil {
		cleanup()
		log.Fatalf("failed to setup mongo client: %v", err)
	}

	code := m.Run()
	cleanup()

	os.Exit(code)
}

func resetDatabase(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	collections := []string{
		model.ProtocolConfigCollection,
		model.BorrowerCollection,
		model.LoanCollection,
		model.TokenAccountCollection,
		model.LoanEventCollection,
	}
	for _, collection := range collections {
		_, err := mongoDB.Collection(collection).DeleteMany(ctx, bson.M{})
		require.NoError(t, err)
	}
}

// newMongoService builds a service whose records and ledger live in mongo.
func newMongoService(t *testing.T) (*Service, *fixture) {
	t.Cleanup(func() {
		resetDatabase(t)
	})

	f := &fixture{
		now:       time.Unix(startTime, 0),
		authority: identity(t),
		treasury:  identity(t),
		borrower:  identity(t),
		lender:    identity(t),
	}

	store := db.NewDbWithMetrics(testDB)
	token := tokenclient.NewTokenClientWithMetrics(tokenclient.NewLedgerClient(store))
	srv := NewService(testConfig(f.authority, f.treasury), store, token, nil, nil)
	srv.now = func() time.Time { return f.now }
	t.Cleanup(srv.Stop)
	f.srv = srv

	return srv, f
}

func TestLoanLifecycleOnMongo(t *testing.T) {
	ctx := t.Context()
	srv, f := newMongoService(t)
	f.initialize(t)
	f.fund(t, f.borrower, 2*principal100, "")

	account := f.createLoan(t, principal100, 1_000)
	assert.Equal(t, uint64(1), account.LoanID)
	assert.Equal(t, 2*principal100, f.balance(t, f.borrower))

	f.advance(day)
	_, err := srv.MakeRepayment(ctx, 1, payment50)
	require.Nil(t, err)
	f.advance(day)
	repaid, err := srv.MakeRepayment(ctx, 1, payment50)
	require.Nil(t, err)
	assert.Equal(t, types.LoanStatusRepaid, repaid.Status)

	profile := f.profile(t)
	assert.Equal(t, uint32(1), profile.CompletedLoans)
	assert.Zero(t, profile.ActiveLoans)

	// 50 bps fee on top of each payment
	fee := uint64(250_000)
	assert.Equal(t, principal100, f.balance(t, f.lender))
	assert.Equal(t, 2*fee, f.balance(t, f.treasury))
	assert.Equal(t, principal100-2*fee, f.balance(t, f.borrower))

	docs, dbErr := testDB.GetLoanEvents(ctx, nil)
	require.NoError(t, dbErr)
	var got []types.EventTypes
	for _, doc := range docs {
		got = append(got, doc.Type)
		assert.False(t, doc.Published)
	}
	assert.Equal(t, []types.EventTypes{
		types.EventLoanCreated,
		types.EventPaymentMade,
		types.EventLoanRepaid,
		types.EventPaymentMade,
	}, got)

	protocol, err := srv.GetProtocol(ctx)
	require.Nil(t, err)
	assert.Equal(t, uint64(1), protocol.TotalLoansCreated)
	assert.Equal(t, principal100, protocol.TotalVolume)
}

func TestFailedTransferRollsBackOnMongo(t *testing.T) {
	ctx := t.Context()
	srv, f := newMongoService(t)
	f.initialize(t)
	f.createLoan(t, principal100, 1_000)

	// the borrower holds exactly the payment, the fee cannot be covered
	f.fund(t, f.borrower, payment50, "")

	_, err := srv.MakeRepayment(ctx, 1, payment50)
	require.NotNil(t, err)
	assert.Equal(t, types.TransferFailed, err.ErrorCode)

	assert.Equal(t, payment50, f.balance(t, f.borrower))
	assert.Zero(t, f.balance(t, f.lender))
	account := f.loan(t, 1)
	assert.Zero(t, account.AmountRepaid)
	assert.Equal(t, []types.EventTypes{types.EventLoanCreated}, f.eventTypesOn(t, testDB, 1))
}

func TestConcurrentRepaymentsOnMongo(t *testing.T) {
	ctx := t.Context()
	srv, f := newMongoService(t)
	f.initialize(t)
	f.fund(t, f.borrower, 2*principal100, "")
	f.createLoan(t, principal100, 1_000)

	const payments = 10
	var wg conc.WaitGroup
	for range payments {
		wg.Go(func() {
			_, err := srv.MakeRepayment(ctx, 1, principal100/payments)
			assert.Nil(t, err)
		})
	}
	wg.Wait()

	account := f.loan(t, 1)
	assert.Equal(t, principal100, account.AmountRepaid)
	assert.Equal(t, uint32(payments), account.PaymentsMade)
	assert.Equal(t, types.LoanStatusRepaid, account.Status)
}

func (f *fixture) eventTypesOn(t *testing.T, store db.DbInterface, loanID uint64) []types.EventTypes {
	t.Helper()
	docs, err := store.GetLoanEvents(t.Context(), &loanID)
	require.NoError(t, err)

	var eventTypes []types.EventTypes
	for _, doc := range docs {
		eventTypes = append(eventTypes, doc.Type)
	}
	return eventTypes
}
