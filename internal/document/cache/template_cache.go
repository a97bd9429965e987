// Package cache provides a Redis read-through cache for templates.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"summarymaker/internal/document/model"
	"summarymaker/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// TemplateSource is the store the cache falls through to.
type TemplateSource interface {
	FindByID(ctx context.Context, id string) (*model.Template, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]model.Template, error)
}

// TemplateCache serves templates from Redis and fills misses from the source.
// Redis errors are logged and never fail a lookup.
type TemplateCache struct {
	client *redis.Client
	source TemplateSource
	ttl    time.Duration
	prefix string
}

// NewTemplateCache connects to redisURL and verifies the connection.
func NewTemplateCache(ctx context.Context, redisURL string, source TemplateSource, ttl time.Duration) (*TemplateCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewTemplateCacheWithClient(client, source, ttl), nil
}

// NewTemplateCacheWithClient wraps an existing Redis client.
func NewTemplateCacheWithClient(client *redis.Client, source TemplateSource, ttl time.Duration) *TemplateCache {
	return &TemplateCache{
		client: client,
		source: source,
		ttl:    ttl,
		prefix: "template:",
	}
}

func (c *TemplateCache) key(id string) string {
	return c.prefix + id
}

func (c *TemplateCache) FindByID(ctx context.Context, id string) (*model.Template, error) {
	raw, err := c.client.Get(ctx, c.key(id)).Bytes()
	switch {
	case err == nil:
		var tpl model.Template
		decodeErr := json.Unmarshal(raw, &tpl)
		if decodeErr == nil {
			return &tpl, nil
		}
		logger.Sugar.Warnf("Dropping unreadable cached template %s: %v", id, decodeErr)
	case err != redis.Nil:
		logger.Sugar.Warnf("Template cache get %s failed: %v", id, err)
	}

	tpl, err := c.source.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, *tpl)
	return tpl, nil
}

func (c *TemplateCache) FindByIDs(ctx context.Context, ids []string) (map[string]model.Template, error) {
	out := make(map[string]model.Template, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.key(id)
	}
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		logger.Sugar.Warnf("Template cache mget failed: %v", err)
		values = make([]any, len(ids))
	}

	var missing []string
	for i, id := range ids {
		s, ok := values[i].(string)
		if !ok {
			missing = append(missing, id)
			continue
		}
		var tpl model.Template
		if err := json.Unmarshal([]byte(s), &tpl); err != nil {
			missing = append(missing, id)
			continue
		}
		out[id] = tpl
	}
	if len(missing) == 0 {
		return out, nil
	}

	loaded, err := c.source.FindByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, tpl := range loaded {
		out[id] = tpl
		c.store(ctx, tpl)
	}
	return out, nil
}

// Invalidate drops a cached template.
func (c *TemplateCache) Invalidate(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}

func (c *TemplateCache) Close() error {
	return c.client.Close()
}

func (c *TemplateCache) store(ctx context.Context, tpl model.Template) {
	raw, err := json.Marshal(tpl)
	if err != nil {
		logger.Sugar.Warnf("Failed to encode template %s for cache: %v", tpl.ID, err)
		return
	}
	if err := c.client.Set(ctx, c.key(tpl.ID), raw, c.ttl).Err(); err != nil {
		logger.Sugar.Warnf("Template cache set %s failed: %v", tpl.ID, err)
	}
}
