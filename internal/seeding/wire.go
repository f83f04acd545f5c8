package seeding

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/uptrace/bun"

	"ms-seeder/internal/config"
	"ms-seeder/internal/database"
	"ms-seeder/internal/database/migrations"
	"ms-seeder/internal/database/seeders"
	"ms-seeder/internal/kafka"
	"ms-seeder/internal/lock"
	"ms-seeder/internal/logger"
	usersdb "ms-seeder/internal/users/db"
)

// NewRunners builds the schema and seed runners over one database.
func NewRunners(bunDB *bun.DB, log *logger.Logger) (migrationRunner, seedRunner *database.Runner) {
	migrationRunner = database.NewRunner(bunDB, migrations.Migrations, database.RunnerOptions{
		Kind:           "migration",
		TableName:      migrations.TableName,
		LocksTableName: migrations.LocksTableName,
	}, log)
	seedRunner = database.NewRunner(bunDB, seeders.Seeds, database.RunnerOptions{
		Kind:           "seed",
		TableName:      seeders.TableName,
		LocksTableName: seeders.LocksTableName,
	}, log)
	return migrationRunner, seedRunner
}

// Setup connects everything cfg enables and returns the service together
// with a function releasing the connections.
func Setup(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Service, func(), error) {
	bunDB, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		return nil, nil, err
	}
	closers := []func() error{bunDB.Close}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn("APP", fmt.Sprintf("Close failed: %v", err))
			}
		}
	}

	migrationRunner, seedRunner := NewRunners(bunDB, log)
	svc := NewService(migrationRunner, seedRunner, &usersdb.DB{Bun: bunDB}, log)

	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			redisClient.Close()
			cleanup()
			return nil, nil, fmt.Errorf("redis connection error: %w", err)
		}
		closers = append(closers, redisClient.Close)
		svc.Lock = lock.NewRedis(redisClient, cfg.Redis.LockTTL, log)
		log.Info("REDIS", fmt.Sprintf("✅ Redis run lock enabled at %s (ttl %s)", cfg.Redis.Addr, cfg.Redis.LockTTL))
	} else {
		log.Info("REDIS", "Redis run lock disabled")
	}

	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, []string{cfg.Kafka.Topic}); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		closers = append(closers, producer.Close)
		svc.Events = producer
		log.Info("KAFKA", fmt.Sprintf("Seed events published to %s", cfg.Kafka.Topic))
	} else {
		log.Info("KAFKA", "Seed events disabled")
	}

	return svc, cleanup, nil
}
