package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stockmgmt/dashboard/internal/infrastructure/config"
)

// DefaultKeyPrefix namespaces the session keys in Redis
const DefaultKeyPrefix = "stockdash:session:"

// RedisStore keeps the session in Redis under two keys sharing a prefix,
// so several dashboard instances can share one login.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(cfg config.RedisConfig, keyPrefix string, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisStoreWithClient(client, keyPrefix, ttl), nil
}

// NewRedisStoreWithClient creates a store over an existing client. A zero ttl keeps keys forever.
func NewRedisStoreWithClient(client redis.UniversalClient, keyPrefix string, ttl time.Duration) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

func (s *RedisStore) tokenKey() string { return s.keyPrefix + TokenKey }
func (s *RedisStore) userKey() string  { return s.keyPrefix + UserKey }

// Load reads both keys in one round trip
func (s *RedisStore) Load(ctx context.Context) (Data, error) {
	vals, err := s.client.MGet(ctx, s.tokenKey(), s.userKey()).Result()
	if err != nil {
		return Data{}, fmt.Errorf("session: failed to load from Redis: %w", err)
	}

	var d Data
	if token, ok := vals[0].(string); ok {
		d.Token = token
	}
	if raw, ok := vals[1].(string); ok {
		user, err := decodeUser([]byte(raw))
		if err != nil {
			return Data{}, err
		}
		d.User = user
	}
	return d, nil
}

// Save writes both keys in a single transaction
func (s *RedisStore) Save(ctx context.Context, data Data) error {
	userJSON, err := encodeUser(data.User)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if data.Token == "" {
			pipe.Del(ctx, s.tokenKey())
		} else {
			pipe.Set(ctx, s.tokenKey(), data.Token, s.ttl)
		}
		if userJSON == nil {
			pipe.Del(ctx, s.userKey())
		} else {
			pipe.Set(ctx, s.userKey(), userJSON, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("session: failed to save to Redis: %w", err)
	}
	return nil
}

// Clear deletes both keys
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.tokenKey(), s.userKey()).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("session: failed to clear Redis keys: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
