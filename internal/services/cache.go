package services

import (
	"sync"
	"time"

	"github.com/bobby-s-dev/fireguard/internal/models"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type CacheItem struct {
	Data      *models.TrendForecast
	ExpiresAt time.Time
}

// TrendCache holds the latest forecast per trend model until it expires.
type TrendCache struct {
	mu              sync.RWMutex
	items           map[models.TrendModel]CacheItem
	logger          *zap.Logger
	clock           clockwork.Clock
	defaultDuration time.Duration
}

func NewTrendCache(defaultDuration time.Duration, clock clockwork.Clock, logger *zap.Logger) *TrendCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TrendCache{
		items:           make(map[models.TrendModel]CacheItem),
		logger:          logger,
		clock:           clock,
		defaultDuration: defaultDuration,
	}
}

func (c *TrendCache) Set(forecast *models.TrendForecast) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.clock.Now().Add(c.defaultDuration)
	c.items[forecast.Model] = CacheItem{
		Data:      forecast,
		ExpiresAt: expiresAt,
	}

	c.logger.Debug("Trend forecast cached",
		zap.String("model", string(forecast.Model)),
		zap.Time("expires_at", expiresAt))
}

func (c *TrendCache) Get(model models.TrendModel) (*models.TrendForecast, bool) {
	c.mu.RLock()
	item, exists := c.items[model]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if c.clock.Now().After(item.ExpiresAt) {
		c.mu.Lock()
		delete(c.items, model)
		c.mu.Unlock()
		return nil, false
	}

	return item.Data, true
}

// Cleanup drops expired entries and returns how many were removed.
func (c *TrendCache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	expiredCount := 0
	for model, item := range c.items {
		if now.After(item.ExpiresAt) {
			delete(c.items, model)
			expiredCount++
		}
	}

	if expiredCount > 0 {
		c.logger.Debug("Cleaned expired cache items",
			zap.Int("count", expiredCount))
	}
	return expiredCount
}

func (c *TrendCache) GetStats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return map[string]interface{}{
		"trend_items":      len(c.items),
		"default_duration": c.defaultDuration.String(),
	}
}
