package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/ticketline/config"
	"github.com/Domenick1991/ticketline/internal/domain"
	"github.com/redis/go-redis/v9"
)

// CachedPage is a cached catalog query result.
type CachedPage struct {
	Tickets []domain.Ticket `json:"tickets"`
	Total   int             `json:"total"`
}

type RedisCache struct {
	client     *redis.Client
	catalogTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, catalogTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		catalogTTL: catalogTTL,
	}
}

func (c *RedisCache) GetCatalogPage(ctx context.Context, key string) (*CachedPage, error) {
	data, err := c.client.Get(ctx, catalogKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var page CachedPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *RedisCache) SetCatalogPage(ctx context.Context, key string, page *CachedPage) error {
	payload, err := json.Marshal(page)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, catalogKey(key), payload, c.catalogTTL).Err()
}

// InvalidateCatalog drops every cached catalog page. Called after catalog
// mutations so stale listings never outlive a write by more than the scan.
func (c *RedisCache) InvalidateCatalog(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, catalogKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// AcquirePromoLock serializes advertisement promotions across instances.
func (c *RedisCache) AcquirePromoLock(ctx context.Context, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, promoLockKey(), "locked", ttl).Result()
}

func (c *RedisCache) ReleasePromoLock(ctx context.Context) error {
	return c.client.Del(ctx, promoLockKey()).Err()
}

func catalogKey(suffix string) string {
	return fmt.Sprintf("cache:catalog:%s", suffix)
}

func promoLockKey() string {
	return "lock:ads:promote"
}
