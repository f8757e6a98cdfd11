package database

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateIndexes creates all necessary indexes for the collections
func CreateIndexes(ctx context.Context, db *MongoDB) error {
	slog.Info("Creating MongoDB indexes")

	collections := map[string][]mongo.IndexModel{
		CollectionRefreshSessions: {
			{
				Keys:    bson.D{{Key: "session_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("idx_session_id_unique"),
			},
			{
				Keys: bson.D{
					{Key: "target", Value: 1},
					{Key: "started_at", Value: -1},
				},
				Options: options.Index().SetName("idx_target_started_at"),
			},
			{
				Keys: bson.D{
					{Key: "outcome", Value: 1},
					{Key: "started_at", Value: -1},
				},
				Options: options.Index().SetName("idx_outcome_started_at"),
			},
		},
		CollectionDeliveryLogs: {
			{
				Keys:    bson.D{{Key: "session_id", Value: 1}},
				Options: options.Index().SetName("idx_session_id"),
			},
			{
				Keys:    bson.D{{Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_created_at"),
			},
		},
		CollectionRefreshLocks: {
			{
				Keys:    bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("idx_name_unique"),
			},
			{
				// Mongo drops expired locks on its own as a backstop
				Keys:    bson.D{{Key: "expires_at", Value: 1}},
				Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_expires_at_ttl"),
			},
		},
	}

	for name, indexes := range collections {
		if err := createIndexes(ctx, db, name, indexes); err != nil {
			return err
		}
	}

	slog.Info("Successfully created all MongoDB indexes")
	return nil
}

func createIndexes(ctx context.Context, db *MongoDB, collectionName string, indexes []mongo.IndexModel) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := db.GetCollection(collectionName).Indexes().CreateMany(ctxTimeout, indexes); err != nil {
		return err
	}

	slog.Info("Created indexes", "collection", collectionName)
	return nil
}
