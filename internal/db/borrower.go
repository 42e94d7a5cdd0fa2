package db

import (
	"context"
	"errors"

	"github.com/gitdigital/founder-loan-service/internal/db/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func (db *Database) GetBorrower(ctx context.Context, owner string) (*model.BorrowerDocument, error) {
	var doc model.BorrowerDocument
	err := db.collection(model.BorrowerCollection).
		FindOne(ctx, bson.M{"_id": owner}).
		Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     owner,
				Message: "borrower profile not found",
			}
		}
		return nil, err
	}

	return &doc, nil
}

func (db *Database) SaveNewBorrower(ctx context.Context, doc *model.BorrowerDocument) error {
	_, err := db.collection(model.BorrowerCollection).InsertOne(ctx, doc)
	return wrapDuplicateKey(err, doc.Owner, "borrower profile already exists")
}

func (db *Database) UpdateBorrower(ctx context.Context, doc *model.BorrowerDocument, expectedVersion uint64) error {
	filter := bson.M{
		"_id":     doc.Owner,
		"version": expectedVersion,
	}
	res, err := db.collection(model.BorrowerCollection).ReplaceOne(ctx, filter, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return &ConcurrentUpdateError{
			Key:     doc.Owner,
			Message: "borrower profile not found or modified concurrently",
		}
	}

	return nil
}
