package sessionRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookline/database"
	"bookline/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// maxStoredMessages caps history growth. Truncation keeps the newest turns;
// the system turn is rebuilt per request so it is never lost with the oldest.
const maxStoredMessages = 40

// MongoSessionRepo implements SessionRepository using MongoDB.
type MongoSessionRepo struct {
	coll *mongo.Collection
}

// NewMongoSessionRepo creates a new instance of SessionRepository using MongoDB.
func NewMongoSessionRepo() SessionRepository {
	coll := database.Collection("sessions")
	repo := &MongoSessionRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func (r *MongoSessionRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "instanceId", Value: 1}, {Key: "sessionId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoSessionRepo) GetOrCreate(ctx context.Context, instanceID, sessionID string) (*models.Session, error) {
	var sess models.Session
	filter := bson.M{"instanceId": instanceID, "sessionId": sessionID}
	err := r.coll.FindOne(ctx, filter).Decode(&sess)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &models.Session{
			InstanceID: instanceID,
			SessionID:  sessionID,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (r *MongoSessionRepo) Append(ctx context.Context, instanceID, sessionID string, msgs ...models.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	now := time.Now()
	filter := bson.M{"instanceId": instanceID, "sessionId": sessionID}
	update := bson.M{
		"$push": bson.M{
			"messages": bson.M{
				"$each":  msgs,
				"$slice": -maxStoredMessages,
			},
		},
		"$set": bson.M{"updatedAt": now},
		"$setOnInsert": bson.M{
			"id":        uuid.New().String(),
			"createdAt": now,
		},
	}
	_, err := r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to append session turns: %w", err)
	}
	return nil
}

func (r *MongoSessionRepo) History(ctx context.Context, instanceID, sessionID string, maxTurns int) ([]models.ChatMessage, error) {
	sess, err := r.GetOrCreate(ctx, instanceID, sessionID)
	if err != nil {
		return nil, err
	}
	msgs := sess.Messages
	if maxTurns > 0 && len(msgs) > maxTurns {
		msgs = msgs[len(msgs)-maxTurns:]
	}
	return msgs, nil
}

func (r *MongoSessionRepo) ListByInstance(ctx context.Context, instanceID string) ([]models.Session, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"instanceId": instanceID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []models.Session
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *MongoSessionRepo) Clear(ctx context.Context, instanceID, sessionID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"instanceId": instanceID, "sessionId": sessionID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
