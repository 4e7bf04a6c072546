package repository

import (
	"context"

	"promptcraft/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PromptRepo handles MongoDB operations for archived prompts
type PromptRepo interface {
	Save(ctx context.Context, record *model.PromptRecord) error
	GetBySessionID(ctx context.Context, sessionID string) (*model.PromptRecord, error)
	ListRecent(ctx context.Context, limit int64) ([]*model.PromptRecord, error)
}

type promptRepo struct {
	collection *mongo.Collection
}

// NewPromptRepo creates a new prompt repository
func NewPromptRepo(db *mongo.Database) PromptRepo {
	return &promptRepo{
		collection: db.Collection("prompts"),
	}
}

// Save upserts by session id; a session that is reset and completed again
// replaces its earlier record.
func (r *promptRepo) Save(ctx context.Context, record *model.PromptRecord) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": record.SessionID}, record, opts)
	return err
}

func (r *promptRepo) GetBySessionID(ctx context.Context, sessionID string) (*model.PromptRecord, error) {
	var record model.PromptRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *promptRepo) ListRecent(ctx context.Context, limit int64) ([]*model.PromptRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit)
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*model.PromptRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
