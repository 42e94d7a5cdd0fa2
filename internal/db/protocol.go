package db

import (
	"context"
	"errors"

	"github.com/gitdigital/founder-loan-service/internal/db/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func (db *Database) GetProtocolConfig(ctx context.Context) (*model.ProtocolConfigDocument, error) {
	var doc model.ProtocolConfigDocument
	err := db.collection(model.ProtocolConfigCollection).
		FindOne(ctx, bson.M{"_id": model.ProtocolConfigID}).
		Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     model.ProtocolConfigID,
				Message: "protocol config not found",
			}
		}
		return nil, err
	}

	return &doc, nil
}

func (db *Database) SaveProtocolConfig(ctx context.Context, doc *model.ProtocolConfigDocument) error {
	_, err := db.collection(model.ProtocolConfigCollection).InsertOne(ctx, doc)
	return wrapDuplicateKey(err, model.ProtocolConfigID, "protocol config already exists")
}

func (db *Database) UpdateProtocolConfig(
	ctx context.Context, doc *model.ProtocolConfigDocument, expectedVersion uint64,
) error {
	filter := bson.M{
		"_id":     model.ProtocolConfigID,
		"version": expectedVersion,
	}
	res, err := db.collection(model.ProtocolConfigCollection).ReplaceOne(ctx, filter, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return &ConcurrentUpdateError{
			Key:     model.ProtocolConfigID,
			Message: "protocol config not found or modified concurrently",
		}
	}

	return nil
}
