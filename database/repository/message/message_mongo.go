package messageRepo

import (
	"context"
	"fmt"
	"time"

	"mindbridge/database"
	"mindbridge/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository defines methods for consultation message data access.
type MessageRepository interface {
	// Create persists a message, assigning its per-consultation arrival
	// sequence number.
	Create(ctx context.Context, msg *models.Message) error
	// ListByConsultation retrieves all messages for a consultation ordered
	// by (sent_at, seq).
	ListByConsultation(ctx context.Context, consultationID string) ([]models.Message, error)
}

// MongoMessageRepo implements MessageRepository using MongoDB.
type MongoMessageRepo struct {
	coll     *mongo.Collection
	counters *mongo.Collection
}

// NewMongoMessageRepo creates a new instance of MessageRepository using MongoDB.
func NewMongoMessageRepo() MessageRepository {
	db := database.DB()
	repo := &MongoMessageRepo{
		coll:     db.Collection("messages"),
		counters: db.Collection("message_counters"),
	}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create message indexes: %v\n", err)
	}
	return repo
}

func (r *MongoMessageRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{
			{Key: "consultation_id", Value: 1},
			{Key: "sent_at", Value: 1},
			{Key: "seq", Value: 1},
		}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// nextSeq atomically increments and returns the arrival counter for a
// consultation. The counter document is created on first use.
func (r *MongoMessageRepo) nextSeq(ctx context.Context, consultationID string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": consultationID},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("failed to advance message counter: %w", err)
	}
	return doc.Seq, nil
}

func (r *MongoMessageRepo) Create(ctx context.Context, msg *models.Message) error {
	seq, err := r.nextSeq(ctx, msg.ConsultationID)
	if err != nil {
		return err
	}
	msg.Seq = seq

	if _, err := r.coll.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (r *MongoMessageRepo) ListByConsultation(ctx context.Context, consultationID string) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "sent_at", Value: 1},
		{Key: "seq", Value: 1},
	})

	cursor, err := r.coll.Find(ctx, bson.M{"consultation_id": consultationID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages for consultation %s: %w", consultationID, err)
	}
	defer cursor.Close(ctx)

	var out []models.Message
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return out, nil
}
