// Package cache provides the optional Redis-backed role cache. Role
// membership only changes at registration and reaping, so cached
// resolutions are safe as long as those two paths invalidate.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tradebridge-backend/internal/models"
)

// RoleCache caches resolved roles by account UID.
type RoleCache interface {
	Get(ctx context.Context, uid string) (models.Role, bool)
	Set(ctx context.Context, uid string, role models.Role)
	Invalidate(ctx context.Context, uid string)
}

type redisRoleCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRoleCache connects to Redis and returns a RoleCache. The
// connection is verified with a ping so misconfiguration fails at startup.
func NewRedisRoleCache(ctx context.Context, addr, password string, dbNum int, ttl time.Duration) (RoleCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       dbNum,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &redisRoleCache{client: client, ttl: ttl}, nil
}

func roleKey(uid string) string { return "role:" + uid }

func (c *redisRoleCache) Get(ctx context.Context, uid string) (models.Role, bool) {
	val, err := c.client.Get(ctx, roleKey(uid)).Result()
	if err != nil {
		// redis.Nil and transport errors alike fall back to probing.
		return models.RoleNone, false
	}
	role := models.Role(val)
	if !role.Valid() {
		return models.RoleNone, false
	}
	return role, true
}

// Set stores a resolved role. RoleNone is never cached: a negative result
// may just be the registration write racing the read.
func (c *redisRoleCache) Set(ctx context.Context, uid string, role models.Role) {
	if !role.Valid() {
		return
	}
	c.client.Set(ctx, roleKey(uid), string(role), c.ttl)
}

func (c *redisRoleCache) Invalidate(ctx context.Context, uid string) {
	c.client.Del(ctx, roleKey(uid))
}

// NopRoleCache is used when Redis is not configured.
type NopRoleCache struct{}

func (NopRoleCache) Get(context.Context, string) (models.Role, bool) { return models.RoleNone, false }
func (NopRoleCache) Set(context.Context, string, models.Role)        {}
func (NopRoleCache) Invalidate(context.Context, string)              {}
