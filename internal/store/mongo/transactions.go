package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"budgetpipe/internal/domain"
	"budgetpipe/internal/store"
)

// Transactions returns the Mongo-backed TransactionStore.
func (s *Store) Transactions() store.TransactionStore {
	return &transactionStore{coll: s.db.Collection(transactionsCollection)}
}

type transactionStore struct {
	coll *mongo.Collection
}

func (t *transactionStore) Put(ctx context.Context, txn *domain.Transaction) error {
	filter := bson.M{"pk": txn.PK, "sk": txn.SK}
	_, err := t.coll.ReplaceOne(ctx, filter, txn, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upserting transaction %s: %w", txn.SK, err)
	}
	return nil
}

func (t *transactionStore) Get(ctx context.Context, userID, sk string) (*domain.Transaction, error) {
	var txn domain.Transaction
	err := t.coll.FindOne(ctx, bson.M{"pk": domain.UserPK(userID), "sk": sk}).Decode(&txn)
	if err == mongo.ErrNoDocuments {
		return nil, &domain.NotFoundError{Kind: "transaction", Key: sk}
	}
	if err != nil {
		return nil, fmt.Errorf("fetching transaction %s: %w", sk, err)
	}
	return &txn, nil
}

func (t *transactionStore) UpdateCategory(ctx context.Context, userID, sk, category string, confidence float64, manual bool) (*domain.Transaction, error) {
	set := bson.M{
		"category":   category,
		"confidence": confidence,
		"updated_at": time.Now(),
	}
	if manual {
		set["manually_updated"] = true
	}

	var updated domain.Transaction
	err := t.coll.FindOneAndUpdate(
		ctx,
		bson.M{"pk": domain.UserPK(userID), "sk": sk},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return nil, &domain.NotFoundError{Kind: "transaction", Key: sk}
	}
	if err != nil {
		return nil, fmt.Errorf("updating transaction %s: %w", sk, err)
	}
	return &updated, nil
}

func (t *transactionStore) ListUnassignedByStatement(ctx context.Context, userID, statementID string) ([]*domain.Transaction, error) {
	filter := bson.M{
		"pk":           domain.UserPK(userID),
		"statement_id": statementID,
		"category":     domain.CategoryUnassigned,
	}
	return t.list(ctx, filter)
}

func (t *transactionStore) ListByUser(ctx context.Context, userID, statementID string) ([]*domain.Transaction, error) {
	filter := bson.M{"pk": domain.UserPK(userID)}
	if statementID != "" {
		filter["statement_id"] = statementID
	}
	return t.list(ctx, filter)
}

func (t *transactionStore) list(ctx context.Context, filter bson.M) ([]*domain.Transaction, error) {
	cur, err := t.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "sk", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer cur.Close(ctx)

	var txns []*domain.Transaction
	if err := cur.All(ctx, &txns); err != nil {
		return nil, fmt.Errorf("decoding transactions: %w", err)
	}
	return txns, nil
}

func (t *transactionStore) DeleteByStatement(ctx context.Context, userID, statementID string) error {
	_, err := t.coll.DeleteMany(ctx, bson.M{
		"pk":           domain.UserPK(userID),
		"statement_id": statementID,
	})
	if err != nil {
		return fmt.Errorf("deleting transactions for statement %s: %w", statementID, err)
	}
	return nil
}
