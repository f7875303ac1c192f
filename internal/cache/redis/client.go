package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vikasmalikst/evidently-aeo-sub013/internal/metrics"
	"github.com/vikasmalikst/evidently-aeo-sub013/pkg/logger"
)

// Client memoizes assembled view envelopes. The projection engine itself
// never caches; this sits at the handler boundary where the collaborator
// decides whether a re-read is needed.
type Client struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClient(host string, port int, password string, db int, ttl time.Duration) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client, ttl: ttl}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) GetView(ctx context.Context, view, requestHash string, dst interface{}) (bool, error) {
	data, err := c.client.Get(ctx, viewKey(view, requestHash)).Bytes()
	if err == redis.Nil {
		metrics.CacheMisses.WithLabelValues(view).Inc()
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get cached view: %w", err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached view: %w", err)
	}

	metrics.CacheHits.WithLabelValues(view).Inc()
	logger.Debug("View cache hit", zap.String("view", view), zap.String("request_hash", requestHash))
	return true, nil
}

func (c *Client) SetView(ctx context.Context, view, requestHash string, envelope interface{}) error {
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal view envelope: %w", err)
	}

	if err := c.client.Set(ctx, viewKey(view, requestHash), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set view cache: %w", err)
	}

	logger.Debug("View cached",
		zap.String("view", view),
		zap.String("request_hash", requestHash),
		zap.Duration("ttl", c.ttl),
	)
	return nil
}

// InvalidateView drops every cached envelope for one view, e.g. after an
// upstream rescore.
func (c *Client) InvalidateView(ctx context.Context, view string) error {
	iter := c.client.Scan(ctx, 0, viewKey(view, "*"), 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warn("Failed to delete cache key", zap.Error(err))
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	logger.Info("View cache invalidated", zap.String("view", view))
	return nil
}

func viewKey(view, requestHash string) string {
	return fmt.Sprintf("view:%s:%s", view, requestHash)
}
