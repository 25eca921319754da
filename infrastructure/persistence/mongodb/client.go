package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/hilthontt/townhall/infrastructure/config"
	"github.com/hilthontt/townhall/infrastructure/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const (
	LocationsCollection = "locations"
	RoomsCollection     = "rooms"
	MessagesCollection  = "messages"

	DefaultDatabase          = "townhall"
	DefaultConnectionTimeout = 20 * time.Second
)

func NewMongoClient(ctx context.Context, cfg *config.MongoConfig, log *logger.Logger) (*mongo.Client, error) {
	if cfg == nil || cfg.URI == "" {
		return nil, fmt.Errorf("mongodb URI is required")
	}

	timeout := cfg.ConnectionTimeout
	if timeout <= 0 {
		timeout = DefaultConnectionTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(timeout).
		SetConnectTimeout(timeout)

	client, err := mongo.Connect(connectCtx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, timeout)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	log.Info("connected to mongodb", zap.String("database", databaseName(cfg)))
	return client, nil
}

func GetDatabase(client *mongo.Client, cfg *config.MongoConfig) *mongo.Database {
	if client == nil || cfg == nil {
		return nil
	}
	return client.Database(databaseName(cfg))
}

func databaseName(cfg *config.MongoConfig) string {
	if cfg.Database == "" {
		return DefaultDatabase
	}
	return cfg.Database
}

func DisconnectMongo(ctx context.Context, client *mongo.Client) error {
	if client == nil {
		return nil
	}

	disconnectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.Disconnect(disconnectCtx); err != nil {
		return fmt.Errorf("failed to disconnect from mongodb: %w", err)
	}
	return nil
}

// EnsureIndexes creates the indexes the repositories rely on for uniqueness
// and ordering. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		LocationsCollection: {
			{
				Keys:    bson.D{{Key: "name", Value: 1}, {Key: "level", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_name_level"),
			},
			{
				Keys:    bson.D{{Key: "parent_id", Value: 1}, {Key: "level", Value: 1}},
				Options: options.Index().SetName("parent_level"),
			},
		},
		RoomsCollection: {
			{
				Keys:    bson.D{{Key: "token", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_token"),
			},
		},
		MessagesCollection: {
			{
				Keys:    bson.D{{Key: "room_token", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
				Options: options.Index().SetName("room_recent"),
			},
		},
	}

	for collection, indexes := range specs {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", collection, err)
		}
	}
	return nil
}
