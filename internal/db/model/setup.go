package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gitdigital/founder-loan-service/internal/config"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ProtocolConfigCollection = "protocol_config"
	BorrowerCollection       = "borrowers"
	LoanCollection           = "loans"
	TokenAccountCollection   = "token_accounts"
	LoanEventCollection      = "loan_events"
)

type index struct {
	Indexes map[string]int
	Unique  bool
}

var collections = map[string][]index{
	ProtocolConfigCollection: nil,
	BorrowerCollection:       nil,
	LoanCollection: {
		{Indexes: map[string]int{"borrower": 1}, Unique: false},
		{Indexes: map[string]int{"lender": 1}, Unique: false},
	},
	TokenAccountCollection: nil,
	LoanEventCollection: {
		{Indexes: map[string]int{"loan_id": 1}, Unique: false},
		{Indexes: map[string]int{"published": 1}, Unique: false},
		{Indexes: map[string]int{"dedup_key": 1}, Unique: false},
	},
}

// Setup creates the collections and their indexes. It is idempotent and is
// run on every server start.
func Setup(ctx context.Context, cfg *config.DbConfig) error {
	credential := options.Credential{
		Username: cfg.Username,
		Password: cfg.Password,
	}
	clientOps := options.Client().ApplyURI(cfg.Address)
	if cfg.Username != "" {
		clientOps.SetAuth(credential)
	}
	client, err := mongo.Connect(ctx, clientOps)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("Failed to disconnect setup client")
		}
	}()

	database := client.Database(cfg.DbName)

	for collection, idxs := range collections {
		// transactions cannot create collections implicitly on every server
		// version, so they are created up front
		if err := createCollection(ctx, database, collection); err != nil {
			return err
		}
		for _, idx := range idxs {
			if err := createIndex(ctx, database, collection, idx); err != nil {
				return err
			}
		}
	}

	log.Ctx(ctx).Info().Msg("Collections and Indexes created successfully.")
	return nil
}

// namespaceExistsCode is returned by mongo when creating a collection twice
const namespaceExistsCode = 48

func createCollection(ctx context.Context, database *mongo.Database, collectionName string) error {
	err := database.CreateCollection(ctx, collectionName)
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == namespaceExistsCode {
		log.Ctx(ctx).Debug().Msg(fmt.Sprintf("Collection already exists: %s", collectionName))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", collectionName, err)
	}

	log.Ctx(ctx).Debug().Msg(fmt.Sprintf("Collection created successfully: %s", collectionName))
	return nil
}

func createIndex(ctx context.Context, database *mongo.Database, collectionName string, idx index) error {
	indexKeys := bson.D{}
	for k, v := range idx.Indexes {
		indexKeys = append(indexKeys, bson.E{Key: k, Value: v})
	}

	index := mongo.IndexModel{
		Keys:    indexKeys,
		Options: options.Index().SetUnique(idx.Unique),
	}

	if _, err := database.Collection(collectionName).Indexes().CreateOne(ctx, index); err != nil {
		return fmt.Errorf("failed to create index on %s: %w", collectionName, err)
	}

	log.Ctx(ctx).Debug().Msg(fmt.Sprintf("Index created successfully on collection: %s", collectionName))
	return nil
}
