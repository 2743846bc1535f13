package instanceRepo

import (
	"context"
	"fmt"
	"time"

	"bookline/database"
	"bookline/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoInstanceRepo implements InstanceRepository using MongoDB.
type MongoInstanceRepo struct {
	coll *mongo.Collection
}

// NewMongoInstanceRepo creates a new instance of InstanceRepository using MongoDB.
func NewMongoInstanceRepo() InstanceRepository {
	coll := database.Collection("instances")
	repo := &MongoInstanceRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

// newContext creates a context with the given timeout.
func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

// ensureIndexes creates indexes for fields frequently used in queries.
func (r *MongoInstanceRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "webhookPath", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoInstanceRepo) Create(inst *models.Instance) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	inst.CreatedAt = time.Now()
	inst.UpdatedAt = time.Now()
	if _, err := r.coll.InsertOne(ctx, inst); err != nil {
		return fmt.Errorf("failed to insert instance: %w", err)
	}
	return nil
}

func (r *MongoInstanceRepo) GetByID(id string) (*models.Instance, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var inst models.Instance
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&inst); err != nil {
		return nil, err
	}
	return &inst, nil
}

func (r *MongoInstanceRepo) GetByWebhookPath(path string) (*models.Instance, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var inst models.Instance
	filter := bson.M{"webhookPath": path, "active": true}
	if err := r.coll.FindOne(ctx, filter).Decode(&inst); err != nil {
		return nil, err
	}
	return &inst, nil
}

func (r *MongoInstanceRepo) GetAll() ([]models.Instance, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var instances []models.Instance
	if err := cursor.All(ctx, &instances); err != nil {
		return nil, err
	}
	return instances, nil
}

func (r *MongoInstanceRepo) Update(inst *models.Instance) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	inst.UpdatedAt = time.Now()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"id": inst.ID}, inst)
	if err != nil {
		return fmt.Errorf("failed to update instance: %w", err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *MongoInstanceRepo) Delete(id string) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
