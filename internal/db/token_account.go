package db

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/gitdigital/founder-loan-service/internal/db/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *Database) GetTokenAccount(ctx context.Context, owner string) (*model.TokenAccountDocument, error) {
	var doc model.TokenAccountDocument
	err := db.collection(model.TokenAccountCollection).
		FindOne(ctx, bson.M{"_id": owner}).
		Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     owner,
				Message: "token account not found",
			}
		}
		return nil, err
	}

	return &doc, nil
}

func (db *Database) CreditTokenAccount(ctx context.Context, owner string, amount uint64, delegate string) error {
	// balances are stored as int64
	if amount > math.MaxInt64 {
		return fmt.Errorf("credit amount %d exceeds storable balance", amount)
	}

	update := bson.M{"$inc": bson.M{"balance": int64(amount)}}
	if delegate != "" {
		update["$set"] = bson.M{"delegate": delegate}
	}

	_, err := db.collection(model.TokenAccountCollection).
		UpdateOne(ctx, bson.M{"_id": owner}, update, options.Update().SetUpsert(true))
	return err
}

// TransferTokens debits from and credits to. Callers are expected to run it
// inside WithTransaction together with the records the transfer pays for;
// outside a transaction a failed credit leaves the debit applied.
func (db *Database) TransferTokens(ctx context.Context, from, to, authority string, amount uint64) error {
	if amount > math.MaxInt64 {
		return fmt.Errorf("transfer amount %d exceeds storable balance", amount)
	}

	source, err := db.GetTokenAccount(ctx, from)
	if err != nil {
		return err
	}
	if !source.CanBeMovedBy(authority) {
		return &UnauthorizedTransferError{
			Key:     from,
			Message: fmt.Sprintf("%s is not allowed to move funds of %s", authority, from),
		}
	}

	debit, err := db.collection(model.TokenAccountCollection).UpdateOne(ctx,
		bson.M{"_id": from, "balance": bson.M{"$gte": int64(amount)}},
		bson.M{"$inc": bson.M{"balance": -int64(amount)}},
	)
	if err != nil {
		return err
	}
	if debit.MatchedCount == 0 {
		return &InsufficientFundsError{
			Key:     from,
			Message: fmt.Sprintf("token account %s cannot cover %d", from, amount),
		}
	}

	_, err = db.collection(model.TokenAccountCollection).UpdateOne(ctx,
		bson.M{"_id": to},
		bson.M{"$inc": bson.M{"balance": int64(amount)}},
		options.Update().SetUpsert(true),
	)
	return err
}
