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

// Categories returns the Mongo-backed CategoryStore.
func (s *Store) Categories() store.CategoryStore {
	return &categoryStore{coll: s.db.Collection(categoriesCollection)}
}

type categoryStore struct {
	coll *mongo.Collection
}

func (c *categoryStore) Put(ctx context.Context, cat *domain.Category) error {
	filter := bson.M{"pk": cat.PK, "sk": cat.SK}
	_, err := c.coll.ReplaceOne(ctx, filter, cat, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upserting category %s: %w", cat.Name, err)
	}
	return nil
}

func (c *categoryStore) List(ctx context.Context, userID string) ([]*domain.Category, error) {
	cur, err := c.coll.Find(
		ctx,
		bson.M{"pk": domain.UserPK(userID)},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer cur.Close(ctx)

	var cats []*domain.Category
	if err := cur.All(ctx, &cats); err != nil {
		return nil, fmt.Errorf("decoding categories: %w", err)
	}
	return cats, nil
}

func (c *categoryStore) ListActiveNames(ctx context.Context, userID string) ([]string, error) {
	cur, err := c.coll.Find(
		ctx,
		bson.M{"pk": domain.UserPK(userID), "active": true},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("querying active categories: %w", err)
	}
	defer cur.Close(ctx)

	var names []string
	for cur.Next(ctx) {
		var cat domain.Category
		if err := cur.Decode(&cat); err != nil {
			return nil, fmt.Errorf("decoding category: %w", err)
		}
		names = append(names, cat.Name)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterating categories: %w", err)
	}
	return names, nil
}

func (c *categoryStore) Update(ctx context.Context, userID, name string, active *bool, hints []string) (*domain.Category, error) {
	set := bson.M{"updated_at": time.Now()}
	if active != nil {
		set["active"] = *active
	}
	if hints != nil {
		set["hints"] = hints
	}

	var updated domain.Category
	err := c.coll.FindOneAndUpdate(
		ctx,
		bson.M{"pk": domain.UserPK(userID), "sk": domain.CategorySK(name)},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return nil, &domain.NotFoundError{Kind: "category", Key: name}
	}
	if err != nil {
		return nil, fmt.Errorf("updating category %s: %w", name, err)
	}
	return &updated, nil
}
