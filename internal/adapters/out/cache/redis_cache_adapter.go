package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/serenityspa/medsoft-availability-generator/internal/config"
	"github.com/serenityspa/medsoft-availability-generator/internal/core/domain"
	"github.com/serenityspa/medsoft-availability-generator/internal/core/ports/out"
)

// RedisCacheAdapter - кэш слотов во внешнем разделяемом KV-хранилище.
// Записи заменяются целиком (SET с TTL), частичных мутаций нет, поэтому
// конкурентные читатели безопасны во время прекомпьюта без доп. блокировок.
type RedisCacheAdapter struct {
	client *redis.Client
	logger out.LoggerPort
}

func NewRedisCacheAdapter(cfg *config.Config, logger out.LoggerPort) (*RedisCacheAdapter, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Cache.RedisAddr,
		DB:   cfg.Cache.RedisDB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Error("cache.redis.ping_failed", out.LogFields{
			"addr":  cfg.Cache.RedisAddr,
			"error": err.Error(),
		})
		return nil, err
	}

	return &RedisCacheAdapter{
		client: client,
		logger: logger.WithModule("RedisCacheAdapter"),
	}, nil
}

// NewRedisCacheAdapterWithClient - для тестов с miniredis.
func NewRedisCacheAdapterWithClient(client *redis.Client, logger out.LoggerPort) *RedisCacheAdapter {
	return &RedisCacheAdapter{
		client: client,
		logger: logger.WithModule("RedisCacheAdapter"),
	}
}

func (c *RedisCacheAdapter) GetSlots(ctx context.Context, locationID, serviceID int, day time.Time) (domain.GroupedSlots, bool) {
	key := slotsKey(locationID, serviceID, day)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache.redis.get_failed", out.LogFields{
				"key":   key,
				"error": err.Error(),
			})
		}
		return nil, false
	}

	var slots domain.GroupedSlots
	if err := json.Unmarshal(payload, &slots); err != nil {
		c.logger.Warn("cache.redis.decode_failed", out.LogFields{
			"key":   key,
			"error": err.Error(),
		})
		return nil, false
	}

	c.logger.Debug("cache.redis.get.hit", out.LogFields{
		"key":        key,
		"slotsCount": slots.Total(),
	})

	return slots, true
}

func (c *RedisCacheAdapter) StoreSlots(ctx context.Context, locationID, serviceID int, day time.Time, slots domain.GroupedSlots, expiry time.Time) error {
	key := slotsKey(locationID, serviceID, day)

	ttl := time.Until(expiry)
	if ttl <= 0 {
		// Запись с истекшим сроком не имеет смысла
		return nil
	}

	payload, err := json.Marshal(slots)
	if err != nil {
		return err
	}

	c.logger.Debug("cache.redis.store", out.LogFields{
		"key":        key,
		"slotsCount": slots.Total(),
		"ttl":        ttl.String(),
	})

	return c.client.Set(ctx, key, payload, ttl).Err()
}

func (c *RedisCacheAdapter) Invalidate(ctx context.Context, locationID, serviceID int, day time.Time) error {
	// Полный ключ - точечное удаление без SCAN
	if locationID != 0 && serviceID != 0 && !day.IsZero() {
		return c.client.Del(ctx, slotsKey(locationID, serviceID, day)).Err()
	}

	pattern := slotsKeyPattern(locationID, serviceID, day)
	c.logger.Info("cache.redis.invalidate", out.LogFields{
		"pattern": pattern,
	})

	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}

	return iter.Err()
}
