package availabilityRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mindbridge/database"
	"mindbridge/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when no availability block matches the given id.
var ErrNotFound = errors.New("availability block not found")

// AvailabilityRepository defines read/write access to professional
// availability declarations. The reservation core itself only reads.
type AvailabilityRepository interface {
	Create(ctx context.Context, block *models.AvailabilityBlock) error
	GetByID(ctx context.Context, id string) (*models.AvailabilityBlock, error)
	ListByProfessionalDate(ctx context.Context, professionalID, date string) ([]models.AvailabilityBlock, error)
	Delete(ctx context.Context, id string) error
}

// MongoAvailabilityRepo implements AvailabilityRepository using MongoDB.
type MongoAvailabilityRepo struct {
	coll *mongo.Collection
}

// NewMongoAvailabilityRepo creates a new instance of AvailabilityRepository using MongoDB.
func NewMongoAvailabilityRepo() AvailabilityRepository {
	coll := database.DB().Collection("availability_blocks")
	repo := &MongoAvailabilityRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create availability indexes: %v\n", err)
	}
	return repo
}

func (r *MongoAvailabilityRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{
			{Key: "professional_id", Value: 1},
			{Key: "date", Value: 1},
			{Key: "start", Value: 1},
		}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoAvailabilityRepo) Create(ctx context.Context, block *models.AvailabilityBlock) error {
	if _, err := r.coll.InsertOne(ctx, block); err != nil {
		return fmt.Errorf("failed to insert availability block: %w", err)
	}
	return nil
}

func (r *MongoAvailabilityRepo) GetByID(ctx context.Context, id string) (*models.AvailabilityBlock, error) {
	var block models.AvailabilityBlock
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&block)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch availability block %s: %w", id, err)
	}
	return &block, nil
}

func (r *MongoAvailabilityRepo) ListByProfessionalDate(ctx context.Context, professionalID, date string) ([]models.AvailabilityBlock, error) {
	filter := bson.M{"professional_id": professionalID, "date": date}
	opts := options.Find().SetSort(bson.D{{Key: "start", Value: 1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list availability for professional %s: %w", professionalID, err)
	}
	defer cursor.Close(ctx)

	var out []models.AvailabilityBlock
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode availability blocks: %w", err)
	}
	return out, nil
}

func (r *MongoAvailabilityRepo) Delete(ctx context.Context, id string) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete availability block %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
