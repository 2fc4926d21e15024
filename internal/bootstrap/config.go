package bootstrap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/jaminalder/perfect-tic-tac-toe/internal/domain"
)

type Config struct {
	ServerAddr       string `mapstructure:"SERVER_ADDR"`
	StatsBackend     string `mapstructure:"STATS_BACKEND"`
	StatsFile        string `mapstructure:"STATS_FILE"`
	RedisUrl         string `mapstructure:"REDIS_URL"`
	RedisKey         string `mapstructure:"REDIS_KEY"`
	MongoUri         string `mapstructure:"MONGO_URI"`
	MongoDatabase    string `mapstructure:"MONGO_DATABASE"`
	EngineSide       string `mapstructure:"ENGINE_SIDE"`
	EnginePruning    bool   `mapstructure:"ENGINE_PRUNING"`
	EngineFastestWin bool   `mapstructure:"ENGINE_FASTEST_WIN"`
}

// Stats backends.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

var ErrInvalidConfig = errors.New("invalid config")

var keys = []string{
	"SERVER_ADDR", "STATS_BACKEND", "STATS_FILE", "REDIS_URL", "REDIS_KEY",
	"MONGO_URI", "MONGO_DATABASE", "ENGINE_SIDE", "ENGINE_PRUNING", "ENGINE_FASTEST_WIN",
}

func defaults(v *viper.Viper) {
	v.SetDefault("SERVER_ADDR", ":8080")
	v.SetDefault("STATS_BACKEND", BackendFile)
	v.SetDefault("STATS_FILE", "gameData.json")
	v.SetDefault("REDIS_URL", "localhost:6379")
	v.SetDefault("REDIS_KEY", "tictactoe:stats")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "tictactoe")
	v.SetDefault("ENGINE_SIDE", "O")
	v.SetDefault("ENGINE_PRUNING", true)
	v.SetDefault("ENGINE_FASTEST_WIN", false)
}

// Setup reads cfgPath (if non-empty) and the environment. Environment
// variables override file values.
func Setup(cfgPath string) (*Config, error) {
	v := viper.New()
	defaults(v)
	v.AutomaticEnv()
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StatsBackend {
	case BackendFile, BackendRedis, BackendMongo, BackendMemory:
	default:
		return fmt.Errorf("%w: unknown STATS_BACKEND %q", ErrInvalidConfig, c.StatsBackend)
	}
	if _, err := c.Engine(); err != nil {
		return err
	}
	return nil
}

// Engine returns the side played by the engine.
func (c *Config) Engine() (domain.Cell, error) {
	switch strings.ToUpper(strings.TrimSpace(c.EngineSide)) {
	case "X":
		return domain.X, nil
	case "O":
		return domain.O, nil
	default:
		return domain.Empty, fmt.Errorf("%w: ENGINE_SIDE must be X or O, got %q", ErrInvalidConfig, c.EngineSide)
	}
}
