package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"PatternScout/internal/model"
)

// CachedFetcher wraps a Fetcher with a Redis cache of candle pages.
// Cache failures are logged and fall through to the wrapped fetcher.
type CachedFetcher struct {
	Fetcher Fetcher
	client  *redis.Client
	ttl     time.Duration
	now     func() time.Time
	log     *logrus.Entry
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:       addr,
		Password:   password,
		DB:         db,
		MaxRetries: 2,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewCachedFetcher creates a CachedFetcher. ttl bounds how stale a page may be.
func NewCachedFetcher(inner Fetcher, client *redis.Client, ttl time.Duration, log *logrus.Logger) *CachedFetcher {
	return &CachedFetcher{
		Fetcher: inner,
		client:  client,
		ttl:     ttl,
		now:     time.Now,
		log:     log.WithField("component", "cache"),
	}
}

func (c *CachedFetcher) Name() string { return c.Fetcher.Name() + "+redis" }

// FetchHourly serves from Redis when possible. Requests for the latest data
// are keyed by the current hour, so they refresh at least hourly.
func (c *CachedFetcher) FetchHourly(ctx context.Context, symbol string, limit int, end time.Time) ([]model.Candle, error) {
	key := cacheKey(c.Fetcher.Name(), symbol, limit, end, c.now())

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var candles []model.Candle
		if err := json.Unmarshal(data, &candles); err == nil {
			c.log.WithFields(logrus.Fields{"symbol": symbol, "key": key}).Debug("cache hit")
			return candles, nil
		}
		c.log.WithField("key", key).Warn("discarding undecodable cache entry")
	case err != redis.Nil:
		c.log.WithError(err).WithField("key", key).Warn("cache read failed")
	}

	candles, err := c.Fetcher.FetchHourly(ctx, symbol, limit, end)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(candles); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.log.WithError(err).WithField("key", key).Warn("cache write failed")
		}
	}
	return candles, nil
}

func cacheKey(source, symbol string, limit int, end, now time.Time) string {
	anchor := end
	if anchor.IsZero() {
		anchor = now
	}
	return fmt.Sprintf("klines:%s:%s:%d:%d", source, symbol, limit, anchor.UTC().Truncate(time.Hour).Unix())
}
