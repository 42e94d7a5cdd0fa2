package services

import (
	"testing"
	"time"

	"github.com/gitdigital/founder-loan-service/consumer"
	"github.com/gitdigital/founder-loan-service/internal/clients/metadataclient"
	"github.com/gitdigital/founder-loan-service/internal/clients/tokenclient"
	"github.com/gitdigital/founder-loan-service/internal/config"
	"github.com/gitdigital/founder-loan-service/internal/db/dbtest"
	"github.com/gitdigital/founder-loan-service/internal/loan"
	"github.com/gitdigital/founder-loan-service/internal/types"
	"github.com/gitdigital/founder-loan-service/testutil"
	"github.com/stretchr/testify/require"
)

const (
	testFeeBps   = uint16(50)
	testMinScore = uint16(300)
	startTime    = int64(1_700_000_000)
	day          = 24 * time.Hour
)

type fixture struct {
	srv *Service
	db  *dbtest.MemoryDB
	now time.Time

	authority string
	treasury  string
	borrower  string
	lender    string
}

func identity(t *testing.T) string {
	t.Helper()
	id, err := testutil.RandomIdentity()
	require.NoError(t, err)
	return id
}

func testConfig(authority, treasury string) *config.Config {
	return &config.Config{
		Protocol: config.ProtocolConfig{
			Authority:      authority,
			Treasury:       treasury,
			ProtocolFeeBps: testFeeBps,
			MinCreditScore: testMinScore,
		},
		Processor: config.ProcessorConfig{
			OperationTimeout:   5 * time.Second,
			NotifierWorkers:    2,
			OutboxPollInterval: time.Second,
			OutboxBatchSize:    100,
		},
	}
}

// newFixture builds a service over an in-memory store and ledger. publisher
// and metadata may be nil.
func newFixture(t *testing.T, publisher consumer.EventPublisher, metadata metadataclient.MetadataInterface) *fixture {
	f := &fixture{
		db:        dbtest.New(),
		now:       time.Unix(startTime, 0),
		authority: identity(t),
		treasury:  identity(t),
		borrower:  identity(t),
		lender:    identity(t),
	}

	token := tokenclient.NewTokenClientWithMetrics(tokenclient.NewLedgerClient(f.db))
	f.srv = NewService(testConfig(f.authority, f.treasury), f.db, token, metadata, publisher)
	f.srv.now = func() time.Time { return f.now }
	t.Cleanup(f.srv.Stop)

	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *fixture) initialize(t *testing.T) *loan.Protocol {
	t.Helper()
	protocol, err := f.srv.InitializeProtocolFromConfig(t.Context())
	require.Nil(t, err)
	return protocol
}

func (f *fixture) createLoan(t *testing.T, principal uint64, pct uint16) *loan.Account {
	t.Helper()
	account, err := f.srv.CreateLoan(t.Context(), loan.CreateRequest{
		Principal:           principal,
		RepaymentPercentage: pct,
		Borrower:            f.borrower,
		Lender:              f.lender,
	})
	require.Nil(t, err)
	return account
}

func (f *fixture) fund(t *testing.T, owner string, amount uint64, delegate string) {
	t.Helper()
	require.Nil(t, f.srv.FundAccount(t.Context(), owner, amount, delegate))
}

func (f *fixture) balance(t *testing.T, owner string) uint64 {
	t.Helper()
	balance, err := f.srv.Balance(t.Context(), owner)
	require.Nil(t, err)
	return balance
}

func (f *fixture) loan(t *testing.T, loanID uint64) *loan.Account {
	t.Helper()
	account, err := f.srv.GetLoan(t.Context(), loanID)
	require.Nil(t, err)
	return account
}

func (f *fixture) profile(t *testing.T) *loan.Profile {
	t.Helper()
	profile, err := f.srv.GetBorrower(t.Context(), f.borrower)
	require.Nil(t, err)
	return profile
}

// eventTypes lists the recorded events of loanID in emission order.
func (f *fixture) eventTypes(t *testing.T, loanID uint64) []types.EventTypes {
	t.Helper()
	docs, err := f.db.GetLoanEvents(t.Context(), &loanID)
	require.NoError(t, err)

	var eventTypes []types.EventTypes
	for _, doc := range docs {
		eventTypes = append(eventTypes, doc.Type)
	}
	return eventTypes
}
