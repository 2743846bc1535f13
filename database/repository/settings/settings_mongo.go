package settingsRepo

import (
	"context"
	"errors"
	"time"

	"bookline/database"
	"bookline/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SettingsRepository defines methods for global settings access.
type SettingsRepository interface {
	// Get returns the singleton settings document, or defaults when unset.
	Get(ctx context.Context) (*models.GlobalSettings, error)
	// Update upserts the singleton settings document.
	Update(ctx context.Context, gs *models.GlobalSettings) error
}

// MongoSettingsRepo implements SettingsRepository using MongoDB.
type MongoSettingsRepo struct {
	coll *mongo.Collection
}

// NewMongoSettingsRepo creates a new instance of SettingsRepository using MongoDB.
func NewMongoSettingsRepo() SettingsRepository {
	return &MongoSettingsRepo{coll: database.Collection("global_settings")}
}

func (r *MongoSettingsRepo) Get(ctx context.Context) (*models.GlobalSettings, error) {
	var gs models.GlobalSettings
	err := r.coll.FindOne(ctx, bson.M{"id": 1}).Decode(&gs)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &models.GlobalSettings{ID: 1}, nil
	}
	if err != nil {
		return nil, err
	}
	return &gs, nil
}

func (r *MongoSettingsRepo) Update(ctx context.Context, gs *models.GlobalSettings) error {
	gs.ID = 1
	gs.UpdatedAt = time.Now()
	_, err := r.coll.ReplaceOne(ctx, bson.M{"id": 1}, gs, options.Replace().SetUpsert(true))
	return err
}
