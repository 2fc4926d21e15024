package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/jaminalder/perfect-tic-tac-toe/internal/search"
	"github.com/jaminalder/perfect-tic-tac-toe/internal/tally"
)

const mongoTallyID = "global"

// OpenStore connects the configured tally backend. The returned close func
// releases any client connection.
func OpenStore(ctx context.Context, cfg *Config, log *zap.SugaredLogger) (tally.Store, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	switch cfg.StatsBackend {
	case BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisUrl})
		ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(ctxPing).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.RedisUrl, err)
		}
		log.Infow("tally stored in redis", "addr", cfg.RedisUrl, "key", cfg.RedisKey)
		return tally.NewRedisStore(client, cfg.RedisKey), func(context.Context) error { return client.Close() }, nil

	case BackendMongo:
		ctxConnect, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		client, err := mongo.Connect(ctxConnect, options.Client().ApplyURI(cfg.MongoUri))
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		if err := client.Ping(ctxConnect, nil); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, fmt.Errorf("ping mongo: %w", err)
		}
		log.Infow("tally stored in mongo", "database", cfg.MongoDatabase)
		return tally.NewMongoStore(client.Database(cfg.MongoDatabase), mongoTallyID), client.Disconnect, nil

	case BackendMemory:
		log.Infow("tally kept in memory only")
		return &tally.MemoryStore{}, noop, nil

	default:
		log.Infow("tally stored in file", "path", cfg.StatsFile)
		return tally.NewFileStore(cfg.StatsFile), noop, nil
	}
}

// SearchOptions translates the engine settings.
func (c *Config) SearchOptions() []search.Option {
	var opts []search.Option
	if c.EnginePruning {
		opts = append(opts, search.WithPruning())
	}
	if c.EngineFastestWin {
		opts = append(opts, search.WithFastestWin())
	}
	return opts
}

// NewLogger builds the production logger.
func NewLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger.Sugar()
}
