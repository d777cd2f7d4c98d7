package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/goodtune/screenbreak/internal/config"
	"github.com/goodtune/screenbreak/internal/storage"
	"github.com/redis/go-redis/v9"
)

// Store implements the storage.SettingsStore interface using Redis
type Store struct {
	client *redis.Client
	key    string
}

// Open creates a new Redis-backed storage instance
func Open(cfg config.RedisConfig) (*Store, error) {
	// Parse timeouts
	dialTimeout, err := time.ParseDuration(cfg.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid dial_timeout: %w", err)
	}

	readTimeout, err := time.ParseDuration(cfg.ReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid read_timeout: %w", err)
	}

	writeTimeout, err := time.ParseDuration(cfg.WriteTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid write_timeout: %w", err)
	}

	// Determine address
	addr := cfg.Host
	if cfg.Port > 0 {
		addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	}

	// Create Redis client
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	})

	// Ping to verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{
		client: client,
		key:    settingsKey(cfg.KeyPrefix),
	}, nil
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// ReadAll returns every stored sub-object
func (s *Store) ReadAll(ctx context.Context) (storage.CustomSettings, error) {
	data, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read custom settings: %w", err)
	}

	return parseCustomSettings(data), nil
}

// WriteAll atomically replaces the stored mapping
func (s *Store) WriteAll(ctx context.Context, settings storage.CustomSettings) error {
	script := redis.NewScript(replaceSettingsScript)

	keys := []string{s.key}
	args := flattenCustomSettings(settings)

	if err := script.Run(ctx, s.client, keys, args...).Err(); err != nil {
		return fmt.Errorf("failed to write custom settings: %w", err)
	}
	return nil
}
