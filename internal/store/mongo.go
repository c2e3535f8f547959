package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/asanalab/flowbuilder/internal/models"
)

// MongoStore handles sequence document CRUD in MongoDB. Sequences are
// nested (sections holding pose instances and group blocks), which is
// why they live in a document store rather than in Postgres.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection("sequences")}
}

func (s *MongoStore) Insert(ctx context.Context, seq *models.Sequence) (string, error) {
	now := time.Now()
	seq.CreatedAt = now
	seq.UpdatedAt = now
	res, err := s.col.InsertOne(ctx, seq)
	if err != nil {
		return "", fmt.Errorf("mongo insert: %w", err)
	}
	oid := res.InsertedID.(primitive.ObjectID)
	return oid.Hex(), nil
}

func (s *MongoStore) ListByOwner(ctx context.Context, ownerID string) ([]models.Sequence, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cur, err := s.col.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var seqs []models.Sequence
	if err := cur.All(ctx, &seqs); err != nil {
		return nil, err
	}
	return seqs, nil
}

func (s *MongoStore) GetByID(ctx context.Context, id string) (*models.Sequence, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid id: %w", err)
	}
	var seq models.Sequence
	if err := s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&seq); err != nil {
		return nil, err
	}
	return &seq, nil
}

func (s *MongoStore) Update(ctx context.Context, id string, req models.SequenceRequest) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid id: %w", err)
	}
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"name":        req.Name,
		"description": req.Description,
		"sections":    req.Sections,
		"updated_at":  time.Now(),
	}})
	if err != nil {
		return fmt.Errorf("mongo update: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid id: %w", err)
	}
	_, err = s.col.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

// ListAll streams every sequence, for export.
func (s *MongoStore) ListAll(ctx context.Context) ([]models.Sequence, error) {
	cur, err := s.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var seqs []models.Sequence
	if err := cur.All(ctx, &seqs); err != nil {
		return nil, err
	}
	return seqs, nil
}
