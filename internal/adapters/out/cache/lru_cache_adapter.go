package cache

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/serenityspa/medsoft-availability-generator/internal/config"
	"github.com/serenityspa/medsoft-availability-generator/internal/core/domain"
	"github.com/serenityspa/medsoft-availability-generator/internal/core/ports/out"
)

type lruEntry struct {
	slots  domain.GroupedSlots
	expiry time.Time
}

// LRUCacheAdapter - внутрипроцессный кэш слотов для локальных запусков
// и окружений без Redis. Семантика та же: запись целиком, срок жизни
// до конца дня.
type LRUCacheAdapter struct {
	cache  *lru.Cache[string, *lruEntry]
	mu     sync.RWMutex
	logger out.LoggerPort
}

func NewLRUCacheAdapter(cfg *config.Config, logger out.LoggerPort) (*LRUCacheAdapter, error) {
	cache, err := lru.New[string, *lruEntry](cfg.Cache.LRUSize)
	if err != nil {
		logger.Error("cache.lru.init_failed", out.LogFields{
			"error": err.Error(),
			"size":  cfg.Cache.LRUSize,
		})
		return nil, err
	}

	return &LRUCacheAdapter{
		cache:  cache,
		logger: logger.WithModule("LRUCacheAdapter"),
	}, nil
}

func (c *LRUCacheAdapter) GetSlots(ctx context.Context, locationID, serviceID int, day time.Time) (domain.GroupedSlots, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	key := slotsKey(locationID, serviceID, day)

	entry, exists := c.cache.Get(key)
	if !exists {
		c.logger.Debug("cache.lru.get.miss", out.LogFields{
			"key": key,
		})
		return nil, false
	}

	if time.Now().After(entry.expiry) {
		c.logger.Debug("cache.lru.get.expired", out.LogFields{
			"key": key,
		})
		return nil, false
	}

	c.logger.Debug("cache.lru.get.hit", out.LogFields{
		"key":        key,
		"slotsCount": entry.slots.Total(),
	})

	return entry.slots, true
}

func (c *LRUCacheAdapter) StoreSlots(ctx context.Context, locationID, serviceID int, day time.Time, slots domain.GroupedSlots, expiry time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !expiry.After(time.Now()) {
		return nil
	}

	key := slotsKey(locationID, serviceID, day)

	c.logger.Debug("cache.lru.store", out.LogFields{
		"key":        key,
		"slotsCount": slots.Total(),
	})

	c.cache.Add(key, &lruEntry{slots: slots, expiry: expiry})
	return nil
}

func (c *LRUCacheAdapter) Invalidate(ctx context.Context, locationID, serviceID int, day time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Полный ключ - точечное удаление
	if locationID != 0 && serviceID != 0 && !day.IsZero() {
		c.cache.Remove(slotsKey(locationID, serviceID, day))
		return nil
	}

	pattern := slotsKeyPattern(locationID, serviceID, day)
	for _, key := range c.cache.Keys() {
		if matchKey(key, pattern) {
			c.cache.Remove(key)
		}
	}

	return nil
}
