package db

import (
	"context"

	"github.com/gitdigital/founder-loan-service/internal/db/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var loanEventOrder = bson.D{
	{Key: "timestamp", Value: 1},
	{Key: "loan_id", Value: 1},
	{Key: "loan_version", Value: 1},
	{Key: "sequence", Value: 1},
}

func (db *Database) SaveLoanEvents(ctx context.Context, docs []*model.LoanEventDocument) error {
	if len(docs) == 0 {
		return nil
	}

	items := make([]any, len(docs))
	for i, doc := range docs {
		items[i] = doc
	}

	_, err := db.collection(model.LoanEventCollection).InsertMany(ctx, items)
	return wrapDuplicateKey(err, docs[0].DedupKey, "loan event already exists")
}

func (db *Database) GetLoanEvents(ctx context.Context, loanID *uint64) ([]*model.LoanEventDocument, error) {
	filter := bson.M{}
	if loanID != nil {
		filter["loan_id"] = *loanID
	}

	cursor, err := db.collection(model.LoanEventCollection).
		Find(ctx, filter, options.Find().SetSort(loanEventOrder))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []*model.LoanEventDocument
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}

	return events, nil
}

func (db *Database) GetUnpublishedLoanEvents(ctx context.Context, limit int64) ([]*model.LoanEventDocument, error) {
	opts := options.Find().SetSort(loanEventOrder).SetLimit(limit)
	cursor, err := db.collection(model.LoanEventCollection).Find(ctx, bson.M{"published": false}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []*model.LoanEventDocument
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}

	return events, nil
}

func (db *Database) MarkLoanEventsPublished(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := db.collection(model.LoanEventCollection).UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"published": true}},
	)
	return err
}
