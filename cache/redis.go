package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"example.com/backstage/services/ledger/config"
	"example.com/backstage/services/ledger/models"
)

// ErrCacheMiss is returned when a key is not cached.
var ErrCacheMiss = errors.New("cache miss")

// CacheClient defines the interface for the transaction read cache
type CacheClient interface {
	GetTransaction(ctx context.Context, externalID, transactionType string) (*models.Transaction, error)
	SetTransaction(ctx context.Context, transaction *models.Transaction) error
	DeleteTransaction(ctx context.Context, externalID, transactionType string) error
}

// RedisClient implements CacheClient using Redis
type RedisClient struct {
	client  *redis.Client
	enabled bool
	ttl     time.Duration
}

// NewRedisClient creates a new Redis client. With caching disabled in config
// every operation is a no-op that reports a miss, so callers always fall
// through to the projection store.
func NewRedisClient(cfg config.Config) (CacheClient, error) {
	if !cfg.RedisEnabled {
		return &RedisClient{enabled: false}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{
		client:  client,
		enabled: true,
		ttl:     cfg.RedisTTL,
	}, nil
}

func transactionKey(externalID, transactionType string) string {
	return fmt.Sprintf("transaction:%s:%s", transactionType, externalID)
}

// GetTransaction returns a cached transaction or ErrCacheMiss.
func (c *RedisClient) GetTransaction(ctx context.Context, externalID, transactionType string) (*models.Transaction, error) {
	if !c.enabled {
		return nil, ErrCacheMiss
	}

	data, err := c.client.Get(ctx, transactionKey(externalID, transactionType)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get transaction from cache: %w", err)
	}

	var transaction models.Transaction
	if err := json.Unmarshal([]byte(data), &transaction); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached transaction: %w", err)
	}
	return &transaction, nil
}

// SetTransaction caches a transaction with the configured TTL.
func (c *RedisClient) SetTransaction(ctx context.Context, transaction *models.Transaction) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(transaction)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction for cache: %w", err)
	}

	key := transactionKey(transaction.ExternalID, transaction.TransactionType)
	return c.client.Set(ctx, key, string(data), c.ttl).Err()
}

// DeleteTransaction drops a transaction from the cache.
func (c *RedisClient) DeleteTransaction(ctx context.Context, externalID, transactionType string) error {
	if !c.enabled {
		return nil
	}
	return c.client.Del(ctx, transactionKey(externalID, transactionType)).Err()
}
