package reservationRepo

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

// MongoReservationRepo implements ReservationRepository using MongoDB.
type MongoReservationRepo struct {
	coll *mongo.Collection
}

// NewMongoReservationRepo creates a new instance of ReservationRepository using MongoDB.
func NewMongoReservationRepo() ReservationRepository {
	coll := database.DB().Collection("reservations")
	repo := &MongoReservationRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create reservation indexes: %v\n", err)
	}
	return repo
}

func (r *MongoReservationRepo) Create(ctx context.Context, res *models.Reservation) error {
	now := time.Now()
	res.CreatedAt = now
	res.UpdatedAt = now
	res.Active = true

	if _, err := r.coll.InsertOne(ctx, res); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateSlot
		}
		return fmt.Errorf("failed to insert reservation: %w", err)
	}
	return nil
}

func (r *MongoReservationRepo) GetByID(ctx context.Context, id string) (*models.Reservation, error) {
	var res models.Reservation
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reservation %s: %w", id, err)
	}
	return &res, nil
}

// Transition is the conditional write every state change funnels through.
// The status filter makes racing writers lose cleanly: whichever update
// matches first wins, the rest match zero documents.
func (r *MongoReservationRepo) Transition(
	ctx context.Context,
	id string,
	from []models.ReservationStatus,
	to models.ReservationStatus,
	upd TransitionUpdate,
) (bool, error) {
	filter := bson.M{
		"id":     id,
		"status": bson.M{"$in": from},
	}
	set := bson.M{
		"status":     to,
		"updated_at": time.Now(),
	}
	if upd.PaymentRef != nil {
		set["payment_ref"] = *upd.PaymentRef
	}
	if upd.Active != nil {
		set["active"] = *upd.Active
	}

	result, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("failed to transition reservation %s to %s: %w", id, to, err)
	}
	return result.MatchedCount > 0, nil
}

func (r *MongoReservationRepo) OccupiedStarts(ctx context.Context, professionalID, date string) ([]int, error) {
	filter := bson.M{
		"professional_id": professionalID,
		"date":            date,
		"active":          true,
	}
	opts := options.Find().SetProjection(bson.M{"start": 1})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query occupied starts: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		Start int `bson:"start"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode occupied starts: %w", err)
	}

	starts := make([]int, 0, len(docs))
	for _, d := range docs {
		starts = append(starts, d.Start)
	}
	return starts, nil
}

func (r *MongoReservationRepo) ListByUser(ctx context.Context, userID string) ([]models.Reservation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	var out []models.Reservation
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode reservations: %w", err)
	}
	return out, nil
}

func (r *MongoReservationRepo) ListByProfessionalDate(ctx context.Context, professionalID, date string) ([]models.Reservation, error) {
	filter := bson.M{"professional_id": professionalID, "date": date}
	opts := options.Find().SetSort(bson.D{{Key: "start", Value: 1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations for professional %s: %w", professionalID, err)
	}
	defer cursor.Close(ctx)

	var out []models.Reservation
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode reservations: %w", err)
	}
	return out, nil
}

func (r *MongoReservationRepo) StaleAwaiting(ctx context.Context, cutoff time.Time) ([]models.Reservation, error) {
	filter := bson.M{
		"status":     models.ReservationAwaitingPayment,
		"updated_at": bson.M{"$lt": cutoff},
	}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale reservations: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.Reservation
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode stale reservations: %w", err)
	}
	return out, nil
}
