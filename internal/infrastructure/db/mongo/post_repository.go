package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/updoot/discussion-backend/internal/core/domain"
)

const postCollection = "posts"

type MongoPostRepository struct {
	db   *mongo.Database
	coll *mongo.Collection
}

func NewPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{db: db, coll: db.Collection(postCollection)}
}

type mongoPost struct {
	ID        int64  `bson:"_id"`
	Title     string `bson:"title"`
	Text      string `bson:"text"`
	Points    int    `bson:"points"`
	AuthorID  int64  `bson:"author_id"`
	CreatedAt int64  `bson:"created_at"`
	UpdatedAt int64  `bson:"updated_at"`
}

func (r *MongoPostRepository) Create(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	id, err := nextID(ctx, r.db, postCollection)
	if err != nil {
		return nil, err
	}

	doc := mongoPost{
		ID:        id,
		Title:     post.Title,
		Text:      post.Text,
		Points:    post.Points,
		AuthorID:  post.AuthorID,
		CreatedAt: post.CreatedAt.Unix(),
		UpdatedAt: post.UpdatedAt.Unix(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}

	created := *post
	created.ID = id
	return &created, nil
}

func (r *MongoPostRepository) FindByID(ctx context.Context, id int64) (*domain.Post, error) {
	var mp mongoPost
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&mp); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrPostNotFound
		}
		return nil, fmt.Errorf("find post: %w", err)
	}
	post := mp.toDomain()
	return &post, nil
}

func (r *MongoPostRepository) List(ctx context.Context, limit int, cursor time.Time) ([]domain.Post, error) {
	filter := bson.M{}
	if !cursor.IsZero() {
		filter["created_at"] = bson.M{"$lt": cursor.Unix()}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer cur.Close(ctx)

	var posts []domain.Post
	for cur.Next(ctx) {
		var mp mongoPost
		if err := cur.Decode(&mp); err != nil {
			return nil, fmt.Errorf("decode post: %w", err)
		}
		posts = append(posts, mp.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (r *MongoPostRepository) IncrementPoints(ctx context.Context, postID int64, delta int) error {
	res, err := r.coll.UpdateByID(ctx, postID, bson.M{"$inc": bson.M{"points": delta}})
	if err != nil {
		return fmt.Errorf("increment points: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

func (mp mongoPost) toDomain() domain.Post {
	return domain.Post{
		ID:        mp.ID,
		Title:     mp.Title,
		Text:      mp.Text,
		Points:    mp.Points,
		AuthorID:  mp.AuthorID,
		CreatedAt: unixToTime(mp.CreatedAt),
		UpdatedAt: unixToTime(mp.UpdatedAt),
	}
}
