// Package mongo implements the store interfaces on MongoDB. Records keep the
// pk/sk key scheme from the domain package; every mutation is a single-key
// upsert or update, so no multi-document transactions are needed.
package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	transactionsCollection = "transactions"
	statementsCollection   = "statements"
	categoriesCollection   = "categories"
)

// Store bundles the Mongo-backed implementations of the store interfaces.
type Store struct {
	db *mongo.Database
}

// Connect dials MongoDB, verifies the connection and returns a Store over
// the named database.
func Connect(ctx context.Context, uri, database string) (*Store, *mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, fmt.Errorf("ping MongoDB: %w", err)
	}
	return &Store{db: client.Database(database)}, client, nil
}

// NewStore wraps an existing database handle. Used by tests against a local
// instance.
func NewStore(db *mongo.Database) *Store {
	return &Store{db: db}
}

// EnsureIndexes creates the indexes the access paths rely on: the unique
// (pk, sk) record key, and the statement-scoped category lookup used by the
// classification query.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	keyIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "pk", Value: 1}, {Key: "sk", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	statementIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "statement_id", Value: 1}, {Key: "category", Value: 1}},
	}

	for _, coll := range []string{transactionsCollection, statementsCollection, categoriesCollection} {
		if _, err := s.db.Collection(coll).Indexes().CreateOne(ctx, keyIndex); err != nil {
			return fmt.Errorf("creating key index on %s: %w", coll, err)
		}
	}
	if _, err := s.db.Collection(transactionsCollection).Indexes().CreateOne(ctx, statementIndex); err != nil {
		return fmt.Errorf("creating statement index: %w", err)
	}
	return nil
}
