// Package cache кэширует данные аутентификации в Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"github.com/redis/go-redis/v9"
)

type PrincipalCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPrincipalCache(client *redis.Client, ttl time.Duration) *PrincipalCache {
	return &PrincipalCache{client: client, ttl: ttl}
}

func principalKey(adminID int64) string {
	return fmt.Sprintf("admin:%d:principal", adminID)
}

// Get возвращает nil без ошибки при промахе кэша
func (c *PrincipalCache) Get(ctx context.Context, adminID int64) (*model.Principal, error) {
	data, err := c.client.Get(ctx, principalKey(adminID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get principal: %w", err)
	}

	var p model.Principal
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode cached principal: %w", err)
	}
	return &p, nil
}

func (c *PrincipalCache) Set(ctx context.Context, p *model.Principal) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode principal: %w", err)
	}
	if err := c.client.Set(ctx, principalKey(p.AdminID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set principal: %w", err)
	}
	return nil
}

func (c *PrincipalCache) Delete(ctx context.Context, adminID int64) error {
	if err := c.client.Del(ctx, principalKey(adminID)).Err(); err != nil {
		return fmt.Errorf("redis del principal: %w", err)
	}
	return nil
}
