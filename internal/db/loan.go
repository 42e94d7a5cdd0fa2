package db

import (
	"context"
	"errors"
	"strconv"

	"github.com/gitdigital/founder-loan-service/internal/db/model"
	"github.com/gitdigital/founder-loan-service/internal/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *Database) GetLoan(ctx context.Context, loanID uint64) (*model.LoanDocument, error) {
	var doc model.LoanDocument
	err := db.collection(model.LoanCollection).
		FindOne(ctx, bson.M{"_id": loanID}).
		Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     strconv.FormatUint(loanID, 10),
				Message: "loan not found",
			}
		}
		return nil, err
	}

	return &doc, nil
}

func (db *Database) GetLoansByBorrower(ctx context.Context, borrower string) ([]*model.LoanDocument, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := db.collection(model.LoanCollection).Find(ctx, bson.M{"borrower": borrower}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var loans []*model.LoanDocument
	if err := cursor.All(ctx, &loans); err != nil {
		return nil, err
	}

	return loans, nil
}

func (db *Database) SaveNewLoan(ctx context.Context, doc *model.LoanDocument) error {
	_, err := db.collection(model.LoanCollection).InsertOne(ctx, doc)
	return wrapDuplicateKey(err, strconv.FormatUint(doc.LoanID, 10), "loan already exists")
}

func (db *Database) UpdateLoan(
	ctx context.Context, doc *model.LoanDocument, expectedVersion uint64, qualifiedStatuses []types.LoanStatus,
) error {
	statuses := make([]string, len(qualifiedStatuses))
	for i, status := range qualifiedStatuses {
		statuses[i] = status.String()
	}

	filter := bson.M{
		"_id":     doc.LoanID,
		"version": expectedVersion,
		"status":  bson.M{"$in": statuses},
	}
	res, err := db.collection(model.LoanCollection).ReplaceOne(ctx, filter, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return &ConcurrentUpdateError{
			Key:     strconv.FormatUint(doc.LoanID, 10),
			Message: "loan not found, modified concurrently or not in a qualified status",
		}
	}

	return nil
}
