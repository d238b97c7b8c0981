package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Listing caches JSON-encoded listings per namespace. Writers call Bump to move the
// namespace to a new version, which orphans every key built under the old one.
type Listing struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

// NewListing instantiates the cache helper. A nil client disables caching.
func NewListing(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Listing {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listing{client: client, ttl: ttl, logger: logger}
}

func versionKey(namespace string) string {
	return "backoffice:cache:" + namespace + ":version"
}

// Version returns the namespace version, initialising it when missing.
func (c *Listing) Version(ctx context.Context, namespace string) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, versionKey(namespace)).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, versionKey(namespace), 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, versionKey(namespace)).Int64()
	}
	return ver, err
}

// Bump invalidates a namespace.
func (c *Listing) Bump(ctx context.Context, namespace string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, versionKey(namespace)).Err()
}

const sharedLoadTimeout = 30 * time.Second

// Fetch fills dest from the cache, or from loader on a miss. Concurrent misses for the
// same key share one loader call. Redis failures degrade to calling the loader directly.
func (c *Listing) Fetch(ctx context.Context, namespace, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if c == nil || c.client == nil {
		return load(ctx, dest, loader)
	}

	ver, err := c.Version(ctx, namespace)
	if err != nil {
		c.logger.Warn("cache version unavailable", slog.String("namespace", namespace), slog.Any("error", err))
		return load(ctx, dest, loader)
	}
	fullKey := fmt.Sprintf("backoffice:cache:%s:%s:%d", namespace, key, ver)

	payload, err := c.client.Get(ctx, fullKey).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if !errors.Is(err, redis.Nil) {
		c.logger.Warn("cache read failed", slog.String("key", fullKey), slog.Any("error", err))
		return load(ctx, dest, loader)
	}

	resultChan := c.group.DoChan(fullKey, func() (any, error) {
		// The load is shared by every waiter, so it must outlive the caller that started it.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLoadTimeout)
		defer cancel()
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(ctx, fullKey, raw, c.ttl).Err(); err != nil {
			c.logger.Warn("cache write failed", slog.String("key", fullKey), slog.Any("error", err))
		}
		return raw, nil
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return res.Err
		}
		return json.Unmarshal(res.Val.([]byte), dest)
	}
}

func load(ctx context.Context, dest any, loader func(context.Context) (any, error)) error {
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
