package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/gameshelf/internal/storage"
)

// Storage is a Redis-backed implementation of storage.Backend.
// Each collection is a LIST of JSON records in stored order.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaultKeyPrefix
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Backend = (*Storage)(nil)

func (s *Storage) Load(ctx context.Context, collection string) ([]json.RawMessage, error) {
	values, err := s.client.LRange(ctx, s.key(collection), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	records := make([]json.RawMessage, len(values))
	for i, v := range values {
		records[i] = json.RawMessage(v)
	}
	return records, nil
}

func (s *Storage) Persist(ctx context.Context, collection string, records []json.RawMessage) error {
	key := s.key(collection)

	values := make([]any, len(records))
	for i, r := range records {
		values[i] = string(r)
	}

	// MULTI/EXEC so readers never observe a half-written list
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(values) > 0 {
			pipe.RPush(ctx, key, values...)
		}
		return nil
	})
	return err
}

func (s *Storage) key(collection string) string {
	return collectionKey(s.cfg.KeyPrefix, collection)
}
