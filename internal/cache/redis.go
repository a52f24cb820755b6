package cache

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"whats-up/internal/domain"

	"github.com/redis/go-redis/v9"
)

const redisCacheKey = "briefing:current"

var (
	newRedisClient = func(opts *redis.Options) *redis.Client {
		return redis.NewClient(opts)
	}
	pingRedis = func(ctx context.Context, client *redis.Client) error {
		return client.Ping(ctx).Err()
	}
	parseRedisURL = redis.ParseURL
)

// InitRedis connects to Redis at the given address or URL. Fatal on failure:
// if the operator configured Redis, a broken connection is a deploy error.
func InitRedis(ctx context.Context, addr string) *redis.Client {
	opts := &redis.Options{Addr: addr}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := parseRedisURL(addr)
		if err != nil {
			log.Fatalf("failed to parse REDIS_URL: %v", err)
		}
		opts = parsed
	}

	client := newRedisClient(opts)
	if err := pingRedis(ctx, client); err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	log.Println("Connected to Redis")
	return client
}

// RedisClient is the subset of go-redis used by the store, for testability.
type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisStore is the durable tier for deployments where the local filesystem
// does not survive restarts.
type RedisStore struct {
	client RedisClient
}

func NewRedisStore(client RedisClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Load(ctx context.Context) (*domain.CachedBriefing, error) {
	data, err := s.client.Get(ctx, redisCacheKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entry domain.CachedBriefing
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *RedisStore) Save(ctx context.Context, entry domain.CachedBriefing) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	// Keep the key a little past logical expiry so a late reader still sees
	// "expired" rather than "absent with no history".
	expiry := time.Until(entry.ExpiresAt) + time.Hour
	return s.client.Set(ctx, redisCacheKey, data, expiry).Err()
}
