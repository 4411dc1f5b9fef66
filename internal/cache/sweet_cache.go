// Package cache keeps hot catalogue reads in Redis. Every method is a no-op
// when no Redis client is configured.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"sweetshop-api/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	categoriesKey = "sweets:categories"
	sweetKeyPref  = "sweet:"
)

type SweetCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSweetCache(client *redis.Client, ttl time.Duration) *SweetCache {
	return &SweetCache{client: client, ttl: ttl}
}

func (c *SweetCache) enabled() bool {
	return c != nil && c.client != nil
}

func (c *SweetCache) GetSweet(ctx context.Context, id uuid.UUID) (*model.Sweet, bool) {
	if !c.enabled() {
		return nil, false
	}
	data, err := c.client.Get(ctx, sweetKeyPref+id.String()).Bytes()
	if err != nil {
		return nil, false
	}
	var sweet model.Sweet
	if json.Unmarshal(data, &sweet) != nil {
		return nil, false
	}
	return &sweet, true
}

func (c *SweetCache) SetSweet(ctx context.Context, sweet *model.Sweet) {
	if !c.enabled() {
		return
	}
	c.set(ctx, sweetKeyPref+sweet.ID.String(), sweet)
}

func (c *SweetCache) GetCategories(ctx context.Context) ([]string, bool) {
	if !c.enabled() {
		return nil, false
	}
	data, err := c.client.Get(ctx, categoriesKey).Bytes()
	if err != nil {
		return nil, false
	}
	var categories []string
	if json.Unmarshal(data, &categories) != nil {
		return nil, false
	}
	return categories, true
}

func (c *SweetCache) SetCategories(ctx context.Context, categories []string) {
	if !c.enabled() {
		return
	}
	c.set(ctx, categoriesKey, categories)
}

// Invalidate drops cached sweets after a stock or catalogue change.
func (c *SweetCache) Invalidate(ctx context.Context, ids ...uuid.UUID) {
	if !c.enabled() {
		return
	}
	keys := []string{categoriesKey}
	for _, id := range ids {
		keys = append(keys, sweetKeyPref+id.String())
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.WithError(err).Warn("cache invalidation failed")
	}
}

func (c *SweetCache) set(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.WithError(err).WithField("key", key).Warn("cache write failed")
	}
}

// NewRedisClient pings Redis and returns nil (cache disabled) when it is unreachable.
func NewRedisClient(addr, password string, db int) *redis.Client {
	if addr == "" {
		log.Info("REDIS_ADDR not set, caching and rate limiting disabled")
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("failed to connect to Redis, caching disabled")
		_ = client.Close()
		return nil
	}
	log.WithField("addr", addr).Info("Redis connected")
	return client
}
