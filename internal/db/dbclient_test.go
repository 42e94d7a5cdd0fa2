//go:build integration

package db_test

import (
	"context"
	"errors"
	"log"
	"os"
	"testing"
	"time"

	"github.com/gitdigital/founder-loan-service/internal/config"
	"github.com/gitdigital/founder-loan-service/internal/db"
	"github.com/gitdigital/founder-loan-service/internal/db/model"
	"github.com/gitdigital/founder-loan-service/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var testDB *db.Database

// mongo connected to test database, used for truncating collections
var mongoDB *mongo.Database

func TestMain(m *testing.M) {
	// first setup container with MongoDb
	dbConfig, cleanup, err := testutil.SetupMongoContainer()
	if err != nil {
		log.Fatalf("failed to setup mongo container: %v", err)
	}

	// apply migrations
	err = model.Setup(context.Background(), dbConfig)
	if err != nil {
		cleanup()
		log.Fatalf("failed to init mongo database: %v", err)
	}

	// using config from container mongo initialize client used in tests
	testDB, err = setupClient(dbConfig)
	if err != nil {
		cleanup()
		log.Fatalf("failed to setup client: %v", err)
	}

	mongoDB, err = testutil.ConnectMongo(dbConfig)
	if err != nil {
		cleanup()
		log.Fatalf("failed to setup mongo client: %v", err)
	}

	// integration tests run on this line
	code := m.Run()
	cleanup()

	os.Exit(code)
}

func setupClient(cfg *config.DbConfig) (*db.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return db.New(ctx, *cfg)
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

func TestWithTransaction(t *testing.T) {
	ctx := t.Context()
	t.Cleanup(func() {
		resetDatabase(t)
	})

	require.NoError(t, testDB.Ping(ctx))

	t.Run("commit", func(t *testing.T) {
		borrower := createBorrower(t)
		err := testDB.WithTransaction(ctx, func(ctx context.Context) error {
			return testDB.SaveNewBorrower(ctx, borrower)
		})
		require.NoError(t, err)

		stored, err := testDB.GetBorrower(ctx, borrower.Owner)
		require.NoError(t, err)
		assert.Equal(t, borrower, stored)
	})
	t.Run("rollback", func(t *testing.T) {
		borrower := createBorrower(t)
		require.NoError(t, testDB.CreditTokenAccount(ctx, borrower.Owner, 100, ""))

		fnErr := errors.New("abort")
		err := testDB.WithTransaction(ctx, func(ctx context.Context) error {
			if err := testDB.SaveNewBorrower(ctx, borrower); err != nil {
				return err
			}
			if err := testDB.TransferTokens(ctx, borrower.Owner, "lender", borrower.Owner, 60); err != nil {
				return err
			}
			return fnErr
		})
		require.ErrorIs(t, err, fnErr)

		_, err = testDB.GetBorrower(ctx, borrower.Owner)
		assert.True(t, db.IsNotFoundError(err))
		account, err := testDB.GetTokenAccount(ctx, borrower.Owner)
		require.NoError(t, err)
		assert.Equal(t, uint64(100), account.Balance)
	})
}

func randomIdentity(t *testing.T) string {
	id, err := testutil.RandomIdentity()
	require.NoError(t, err)
	return id
}
