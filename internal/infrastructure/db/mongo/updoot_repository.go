package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/updoot/discussion-backend/internal/core/domain"
)

const updootCollection = "updoots"

type MongoUpdootRepository struct {
	coll *mongo.Collection
}

func NewUpdootRepository(db *mongo.Database) *MongoUpdootRepository {
	return &MongoUpdootRepository{coll: db.Collection(updootCollection)}
}

type mongoUpdoot struct {
	UserID int64 `bson:"user_id"`
	PostID int64 `bson:"post_id"`
	Value  int   `bson:"value"`
}

func keyFilter(key domain.UpdootKey) bson.M {
	return bson.M{"user_id": key.UserID, "post_id": key.PostID}
}

func (r *MongoUpdootRepository) Find(ctx context.Context, key domain.UpdootKey) (int, error) {
	var mu mongoUpdoot
	if err := r.coll.FindOne(ctx, keyFilter(key)).Decode(&mu); err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, domain.ErrUpdootNotFound
		}
		return 0, fmt.Errorf("find updoot: %w", err)
	}
	return mu.Value, nil
}

func (r *MongoUpdootRepository) Upsert(ctx context.Context, key domain.UpdootKey, value int) error {
	_, err := r.coll.UpdateOne(
		ctx,
		keyFilter(key),
		bson.M{"$set": bson.M{"value": value}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert updoot: %w", err)
	}
	return nil
}

func (r *MongoUpdootRepository) FindManyByKeys(ctx context.Context, keys []domain.UpdootKey) (map[domain.UpdootKey]int, error) {
	filters := make([]bson.M, len(keys))
	for i, key := range keys {
		filters[i] = keyFilter(key)
	}

	cur, err := r.coll.Find(ctx, bson.M{"$or": filters})
	if err != nil {
		return nil, fmt.Errorf("find updoots: %w", err)
	}
	defer cur.Close(ctx)

	votes := make(map[domain.UpdootKey]int, len(keys))
	for cur.Next(ctx) {
		var mu mongoUpdoot
		if err := cur.Decode(&mu); err != nil {
			return nil, fmt.Errorf("decode updoot: %w", err)
		}
		votes[domain.UpdootKey{UserID: mu.UserID, PostID: mu.PostID}] = mu.Value
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("find updoots: %w", err)
	}
	return votes, nil
}
