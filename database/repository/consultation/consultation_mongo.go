package consultationRepo

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

var (
	// ErrNotFound is returned when no consultation matches the given id.
	ErrNotFound = errors.New("consultation not found")
	// ErrAlreadyExists is returned when a consultation for the reservation
	// already exists. The unique reservation_id index backs the
	// one-consultation-per-paid-reservation invariant.
	ErrAlreadyExists = errors.New("consultation already exists for reservation")
)

// ConsultationRepository defines methods for consultation data access.
type ConsultationRepository interface {
	Create(ctx context.Context, cons *models.Consultation) error
	GetByID(ctx context.Context, id string) (*models.Consultation, error)
	GetByReservation(ctx context.Context, reservationID string) (*models.Consultation, error)
	// CloseByReservation flips the terminal close flag mirroring reservation
	// cancellation. Closing an already-closed or absent consultation is a no-op.
	CloseByReservation(ctx context.Context, reservationID string) error
}

// MongoConsultationRepo implements ConsultationRepository using MongoDB.
type MongoConsultationRepo struct {
	coll *mongo.Collection
}

// NewMongoConsultationRepo creates a new instance of ConsultationRepository using MongoDB.
func NewMongoConsultationRepo() ConsultationRepository {
	coll := database.DB().Collection("consultations")
	repo := &MongoConsultationRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create consultation indexes: %v\n", err)
	}
	return repo
}

func (r *MongoConsultationRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "reservation_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoConsultationRepo) Create(ctx context.Context, cons *models.Consultation) error {
	cons.CreatedAt = time.Now()
	if _, err := r.coll.InsertOne(ctx, cons); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert consultation: %w", err)
	}
	return nil
}

func (r *MongoConsultationRepo) GetByID(ctx context.Context, id string) (*models.Consultation, error) {
	var cons models.Consultation
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&cons)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch consultation %s: %w", id, err)
	}
	return &cons, nil
}

func (r *MongoConsultationRepo) GetByReservation(ctx context.Context, reservationID string) (*models.Consultation, error) {
	var cons models.Consultation
	err := r.coll.FindOne(ctx, bson.M{"reservation_id": reservationID}).Decode(&cons)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch consultation for reservation %s: %w", reservationID, err)
	}
	return &cons, nil
}

func (r *MongoConsultationRepo) CloseByReservation(ctx context.Context, reservationID string) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"reservation_id": reservationID},
		bson.M{"$set": bson.M{"closed": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to close consultation for reservation %s: %w", reservationID, err)
	}
	return nil
}
