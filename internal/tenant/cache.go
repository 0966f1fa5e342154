// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// cache.go provides a Valkey-backed short-TTL cache for host → tenant
// resolutions. A cache is optional for correctness — entries expire and a
// miss falls back to the lookup — it only trims resolution latency and
// call volume on hot custom domains.
package tenant

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// hostKeyPrefix namespaces resolution entries in Valkey.
	hostKeyPrefix = "tenanthost:"

	// DefaultHostTTL keeps entries short-lived so domain reassignments
	// propagate within a minute.
	DefaultHostTTL = 60 * time.Second
)

// ValkeyHostCache caches successful host resolutions in Valkey.
type ValkeyHostCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewValkeyHostCache creates a host cache with the given TTL.
func NewValkeyHostCache(client *redis.Client, ttl time.Duration) *ValkeyHostCache {
	if ttl <= 0 {
		ttl = DefaultHostTTL
	}
	return &ValkeyHostCache{client: client, ttl: ttl}
}

// Get returns the cached username for a host, if present. Cache errors
// count as misses; the middleware falls back to the lookup.
func (c *ValkeyHostCache) Get(ctx context.Context, host string) (string, bool) {
	val, err := c.client.Get(ctx, hostKeyPrefix+host).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		slog.Warn("host cache get error", "host", host, "error", err)
		return "", false
	}
	return val, true
}

// Set stores a successful resolution. Negative results are never cached.
func (c *ValkeyHostCache) Set(ctx context.Context, host, username string) {
	if err := c.client.Set(ctx, hostKeyPrefix+host, username, c.ttl).Err(); err != nil {
		slog.Warn("host cache set error", "host", host, "error", err)
	}
}

// Invalidate drops a cached resolution, used when a domain is detached.
func (c *ValkeyHostCache) Invalidate(ctx context.Context, host string) {
	if err := c.client.Del(ctx, hostKeyPrefix+host).Err(); err != nil {
		slog.Warn("host cache invalidate error", "host", host, "error", err)
	}
}
