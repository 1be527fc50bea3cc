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

// Statements returns the Mongo-backed StatementStore.
func (s *Store) Statements() store.StatementStore {
	return &statementStore{coll: s.db.Collection(statementsCollection)}
}

type statementStore struct {
	coll *mongo.Collection
}

func (s *statementStore) Put(ctx context.Context, st *domain.Statement) error {
	filter := bson.M{"pk": st.PK, "sk": st.SK}
	_, err := s.coll.ReplaceOne(ctx, filter, st, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upserting statement %s: %w", st.StatementID, err)
	}
	return nil
}

func (s *statementStore) Get(ctx context.Context, userID, statementID string) (*domain.Statement, error) {
	var st domain.Statement
	err := s.coll.FindOne(ctx, bson.M{
		"pk": domain.UserPK(userID),
		"sk": domain.StatementSK(statementID),
	}).Decode(&st)
	if err == mongo.ErrNoDocuments {
		return nil, &domain.NotFoundError{Kind: "statement", Key: statementID}
	}
	if err != nil {
		return nil, fmt.Errorf("fetching statement %s: %w", statementID, err)
	}
	return &st, nil
}

func (s *statementStore) SetStatus(ctx context.Context, userID, statementID, status, cause string, lineItemCount int) error {
	_, err := s.coll.UpdateOne(
		ctx,
		bson.M{"pk": domain.UserPK(userID), "sk": domain.StatementSK(statementID)},
		bson.M{"$set": bson.M{
			"status":          status,
			"failure_cause":   cause,
			"line_item_count": lineItemCount,
			"updated_at":      time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("setting status %s on statement %s: %w", status, statementID, err)
	}
	return nil
}
