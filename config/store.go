package config

import (
	"context"
	"fmt"
	"time"

	"nutrilog/repository"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenStore connects to the configured database.
func OpenStore(ctx context.Context, cfg *Config) (*repository.Store, error) {
	switch cfg.DBDriver {
	case "mongo":
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		if err := client.Ping(ctx, nil); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("failed to ping mongodb: %w", err)
		}
		return repository.NewMongoStore(client.Database(cfg.MongoDatabase)), nil

	default:
		gcfg := &gorm.Config{}
		if cfg.IsProduction() {
			gcfg.Logger = logger.Default.LogMode(logger.Warn)
		}
		db, err := gorm.Open(postgres.Open(cfg.PostgresDSN()), gcfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return repository.NewGormStore(db), nil
	}
}
