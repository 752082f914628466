package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyType namespaces Redis keys by purpose.
type KeyType string

const (
	WEBHOOK_DELIVERY KeyType = "agentmeet_webhook_delivery"
	STREAM_SESSION   KeyType = "agentmeet_stream_session"
)

// RedisConfig holds connection settings for the Redis service.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

var ErrKeyNotExist = redis.Nil

// RedisServiceInterface is the surface consumed by callers so tests can
// substitute a fake.
type RedisServiceInterface interface {
	GenerateKey(keyType KeyType, identifier string) string
	GetValue(ctx context.Context, key string) (string, error)
	SetValue(ctx context.Context, key string, value string, ttl time.Duration) error
	SetIfAbsent(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
	DelValue(ctx context.Context, key string) error
}

// RedisService wraps a go-redis client.
type RedisService struct {
	client *redis.Client
}

// NewRedisService connects to Redis and verifies the connection with a ping.
func NewRedisService(config *RedisConfig) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisService{client: client}, nil
}

// GenerateKey builds a namespaced Redis key for the given type and identifier.
func (r *RedisService) GenerateKey(keyType KeyType, identifier string) string {
	return fmt.Sprintf("%s:%s", string(keyType), identifier)
}

// GetValue gets a value from Redis by key.
func (r *RedisService) GetValue(ctx context.Context, key string) (string, error) {
	return r.client.Get(ctx, key).Result()
}

// SetValue sets a value in Redis with a TTL.
func (r *RedisService) SetValue(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// SetIfAbsent sets the key only if it does not already exist. Returns true
// when the value was written, false when the key was already present.
func (r *RedisService) SetIfAbsent(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, key, value, ttl).Result()
}

// DelValue deletes a value from Redis by key.
func (r *RedisService) DelValue(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// Close releases the underlying client.
func (r *RedisService) Close() error {
	return r.client.Close()
}
