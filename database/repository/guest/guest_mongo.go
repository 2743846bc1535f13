package guestRepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bookline/database"
	"bookline/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoGuestRepo implements GuestRepository using MongoDB.
type MongoGuestRepo struct {
	coll *mongo.Collection
}

// NewMongoGuestRepo creates a new instance of GuestRepository using MongoDB.
func NewMongoGuestRepo() GuestRepository {
	coll := database.Collection("guest_records")
	repo := &MongoGuestRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

// ensureIndexes creates indexes for fields frequently used in queries.
func (r *MongoGuestRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "instanceId", Value: 1}, {Key: "email", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "bookingTime", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoGuestRepo) Create(ctx context.Context, rec *models.GuestRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	rec.Email = strings.ToLower(strings.TrimSpace(rec.Email))
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = time.Now()

	if _, err := r.coll.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to insert guest record: %w", err)
	}
	return nil
}

func (r *MongoGuestRepo) GetByID(ctx context.Context, instanceID, id string) (*models.GuestRecord, error) {
	var rec models.GuestRecord
	filter := bson.M{"instanceId": instanceID, "id": id}
	if err := r.coll.FindOne(ctx, filter).Decode(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *MongoGuestRepo) ListByEmail(ctx context.Context, instanceID, email string) ([]models.GuestRecord, error) {
	filter := bson.M{
		"instanceId": instanceID,
		"email":      strings.ToLower(strings.TrimSpace(email)),
	}
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.GuestRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *MongoGuestRepo) ListByInstance(ctx context.Context, instanceID, status string) ([]models.GuestRecord, error) {
	filter := bson.M{"instanceId": instanceID}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.GuestRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *MongoGuestRepo) UpdateStatus(ctx context.Context, instanceID, id, status, rescheduledTo string) error {
	set := bson.M{"status": status, "updatedAt": time.Now()}
	if rescheduledTo != "" {
		set["rescheduledTo"] = rescheduledTo
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"instanceId": instanceID, "id": id},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("failed to update guest record: %w", err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *MongoGuestRepo) ListUpcomingActive(ctx context.Context, from, to time.Time) ([]models.GuestRecord, error) {
	filter := bson.M{
		"status":      models.GuestStatusActive,
		"bookingTime": bson.M{"$gte": from, "$lt": to},
	}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.GuestRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
