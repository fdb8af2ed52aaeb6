// Package config loads service settings from .env files, the environment, an
// optional YAML file and built-in defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/rl1809/stock-sync/internal/core/domain"
	"github.com/rl1809/stock-sync/internal/core/service"
)

const (
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	ConfigFile string

	SyncDirection         string
	ConflictResolution    string
	BatchSize             int
	SyncIntervalMinutes   int
	SyncTimeoutSeconds    int
	BatchDelayMS          int
	FailureBackoffSeconds int
	PushWorkers           int

	Store       StoreConfig
	Redis       RedisConfig
	Marketplace MarketplaceConfig
	HTTP        ServerConfig
	GRPC        ServerConfig
	Log         LogConfig
}

type StoreConfig struct {
	Driver string
	DSN    string
}

// RedisConfig points at the durable conflict queue. An empty Addr keeps the
// queue in memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type MarketplaceConfig struct {
	BaseURL        string
	Token          string
	TimeoutSeconds int
}

type ServerConfig struct {
	Addr string
}

type LogConfig struct {
	Level  string
	Format string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sync_direction", string(domain.Bidirectional))
	v.SetDefault("conflict_resolution", string(domain.LatestTimestamp))
	v.SetDefault("batch_size", service.DefaultBatchSize)
	v.SetDefault("sync_interval_minutes", int(service.DefaultSyncInterval/time.Minute))
	v.SetDefault("sync_timeout_seconds", int(service.DefaultSyncTimeout/time.Second))
	v.SetDefault("batch_delay_ms", int(service.DefaultBatchDelay/time.Millisecond))
	v.SetDefault("failure_backoff_seconds", int(service.DefaultFailureBackoff/time.Second))
	v.SetDefault("push_workers", service.DefaultPushWorkers)

	v.SetDefault("store.driver", DriverMySQL)
	v.SetDefault("store.dsn", "root:root@tcp(localhost:3306)/inventory?parseTime=true")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("marketplace.base_url", "http://localhost:9090")
	v.SetDefault("marketplace.timeout_seconds", 30)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("grpc.addr", ":50051")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "auto")
}

// Load reads configuration. configFile may be empty, in which case
// ./stocksync.yaml is used when present.
func Load(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("stocksync")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		ConfigFile: v.ConfigFileUsed(),

		SyncDirection:         v.GetString("sync_direction"),
		ConflictResolution:    v.GetString("conflict_resolution"),
		BatchSize:             v.GetInt("batch_size"),
		SyncIntervalMinutes:   v.GetInt("sync_interval_minutes"),
		SyncTimeoutSeconds:    v.GetInt("sync_timeout_seconds"),
		BatchDelayMS:          v.GetInt("batch_delay_ms"),
		FailureBackoffSeconds: v.GetInt("failure_backoff_seconds"),
		PushWorkers:           v.GetInt("push_workers"),

		Store: StoreConfig{
			Driver: strings.ToLower(v.GetString("store.driver")),
			DSN:    v.GetString("store.dsn"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Marketplace: MarketplaceConfig{
			BaseURL:        v.GetString("marketplace.base_url"),
			Token:          v.GetString("marketplace.token"),
			TimeoutSeconds: v.GetInt("marketplace.timeout_seconds"),
		},
		HTTP: ServerConfig{Addr: v.GetString("http.addr")},
		GRPC: ServerConfig{Addr: v.GetString("grpc.addr")},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown policy names and non-positive sizes so a bad
// deployment fails at startup rather than on the first cycle.
func (c *Config) Validate() error {
	direction, err := domain.ParseDirection(c.SyncDirection)
	if err != nil {
		return err
	}
	c.SyncDirection = string(direction)

	resolution, err := domain.ParseResolution(c.ConflictResolution)
	if err != nil {
		return err
	}
	c.ConflictResolution = string(resolution)

	switch c.Store.Driver {
	case DriverMySQL, DriverSQLite, DriverPostgres:
	default:
		return domain.NewValidationError("store.driver", c.Store.Driver, "must be mysql, sqlite or postgres")
	}
	if c.SyncIntervalMinutes <= 0 {
		return domain.NewValidationError("sync_interval_minutes", c.SyncIntervalMinutes, "must be positive")
	}
	if c.Marketplace.TimeoutSeconds <= 0 {
		return domain.NewValidationError("marketplace.timeout_seconds", c.Marketplace.TimeoutSeconds, "must be positive")
	}

	return c.Sync().Validate()
}

// Sync converts the sync settings to orchestrator options.
func (c *Config) Sync() service.Options {
	opts := service.DefaultOptions()
	opts.Direction = domain.Direction(c.SyncDirection)
	opts.Resolution = domain.Resolution(c.ConflictResolution)
	opts.BatchSize = c.BatchSize
	opts.BatchDelay = time.Duration(c.BatchDelayMS) * time.Millisecond
	opts.PushWorkers = c.PushWorkers
	opts.SyncTimeout = time.Duration(c.SyncTimeoutSeconds) * time.Second
	opts.SyncInterval = time.Duration(c.SyncIntervalMinutes) * time.Minute
	opts.FailureBackoff = time.Duration(c.FailureBackoffSeconds) * time.Second
	return opts
}

func (c *Config) MarketplaceTimeout() time.Duration {
	return time.Duration(c.Marketplace.TimeoutSeconds) * time.Second
}

// loadEnvFiles loads .env then .env.local. Variables already set in the
// process environment are never overwritten.
func loadEnvFiles() {
	for _, f := range []string{".env", ".env.local"} {
		_ = godotenv.Load(f)
	}
}
