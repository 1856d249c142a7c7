package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shirtforge-backend/pkg/logger"
	"github.com/angelmondragon/shirtforge-backend/pkg/pricing"
	"github.com/angelmondragon/shirtforge-backend/pkg/redis"
)

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CatalogKey(productID string) string
}

// CachedRepository keeps the structural part of each configuration in Redis.
// Stock levels are never cached: every read overlays them from the database.
type CachedRepository struct {
	repo  *Repository
	cache cacheStore
	ttl   time.Duration
	logg  *logger.Logger
}

// NewCachedRepository wraps repo with a read-through cache. A nil cache
// disables caching.
func NewCachedRepository(repo *Repository, cache cacheStore, ttl time.Duration, logg *logger.Logger) *CachedRepository {
	return &CachedRepository{repo: repo, cache: cache, ttl: ttl, logg: logg}
}

func (c *CachedRepository) GetConfig(ctx context.Context, productID uuid.UUID) (*pricing.ProductDesignConfig, error) {
	cfg, err := c.structure(ctx, productID)
	if err != nil {
		return nil, err
	}
	levels, err := c.repo.Levels(ctx, productID)
	if err != nil {
		return nil, err
	}
	cfg.Inventory = levels
	return cfg, nil
}

// Repository exposes the uncached store, e.g. to bind writes to a transaction.
func (c *CachedRepository) Repository() *Repository {
	return c.repo
}

// Invalidate drops the cached structure for a product.
func (c *CachedRepository) Invalidate(ctx context.Context, productID uuid.UUID) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Del(ctx, c.cache.CatalogKey(productID.String())); err != nil {
		c.warn(ctx, productID, "catalog cache invalidate failed", err)
	}
}

func (c *CachedRepository) structure(ctx context.Context, productID uuid.UUID) (*pricing.ProductDesignConfig, error) {
	if c.cache == nil || c.ttl <= 0 {
		return c.repo.LoadStructure(ctx, productID)
	}
	key := c.cache.CatalogKey(productID.String())

	raw, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		var cfg pricing.ProductDesignConfig
		if jerr := json.Unmarshal([]byte(raw), &cfg); jerr == nil {
			return &cfg, nil
		}
		c.warn(ctx, productID, "catalog cache entry unreadable", nil)
	case !redis.IsNil(err):
		c.warn(ctx, productID, "catalog cache read failed", err)
	}

	cfg, err := c.repo.LoadStructure(ctx, productID)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(cfg)
	if err == nil {
		err = c.cache.Set(ctx, key, payload, c.ttl)
	}
	if err != nil {
		c.warn(ctx, productID, "catalog cache write failed", err)
	}
	return cfg, nil
}

func (c *CachedRepository) warn(ctx context.Context, productID uuid.UUID, msg string, err error) {
	if c.logg == nil {
		return
	}
	ctx = c.logg.WithProductID(ctx, productID.String())
	if err != nil {
		ctx = c.logg.WithField(ctx, "error", err.Error())
	}
	c.logg.Warn(ctx, msg)
}
