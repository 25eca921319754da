package dependency

import (
	"context"
	"fmt"

	"github.com/hilthontt/townhall/infrastructure/cache"
	"github.com/hilthontt/townhall/infrastructure/config"
	"github.com/hilthontt/townhall/infrastructure/persistence/database"
	"github.com/hilthontt/townhall/infrastructure/persistence/memory"
	"github.com/hilthontt/townhall/infrastructure/persistence/migration"
	"github.com/hilthontt/townhall/infrastructure/persistence/mongodb"
	"github.com/hilthontt/townhall/infrastructure/persistence/repository"
	"go.uber.org/zap"
)

// initRepositories selects the storage driver, then layers the room cache
// and, with redis enabled, the history cache over it.
func (c *Container) initRepositories() error {
	switch c.Config.Database.Driver {
	case config.DriverPostgres:
		if err := database.InitDb(c.Config, c.Logger.Log); err != nil {
			return err
		}
		db := database.GetDb()
		if err := migration.Up1(db, c.Logger); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		c.LocationRepo = repository.NewLocationRepository(db)
		c.RoomRepo = repository.NewRoomRepository(db)
		c.MessageRepo = repository.NewMessageRepository(db)

	case config.DriverMongo:
		ctx, cancel := context.WithTimeout(c.ctx, c.Config.Mongo.ConnectionTimeout)
		defer cancel()

		client, err := mongodb.NewMongoClient(ctx, &c.Config.Mongo, c.Logger)
		if err != nil {
			return err
		}
		c.MongoClient = client

		db := mongodb.GetDatabase(client, &c.Config.Mongo)
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			return fmt.Errorf("failed to create mongo indexes: %w", err)
		}
		c.LocationRepo = mongodb.NewLocationRepository(db)
		c.RoomRepo = mongodb.NewRoomRepository(db)
		c.MessageRepo = mongodb.NewMessageRepository(db)

	default:
		c.LocationRepo = memory.NewLocationRepository()
		c.RoomRepo = memory.NewRoomRepository()
		c.MessageRepo = memory.NewMessageRepository()
	}

	c.RoomRepo = cache.NewRoomCache(c.RoomRepo, c.Config.Cache.RoomItems, c.Config.Cache.RoomTTL)

	if redisClient := cache.GetRedis(); redisClient != nil {
		c.MessageRepo = cache.NewMessageHistoryCache(c.MessageRepo, redisClient, c.Config.Redis.HistorySize, c.Logger)
	}

	c.Logger.Info("Repositories initialized successfully", zap.String("driver", c.Config.Database.Driver))
	return nil
}
