// Package cache holds the redis-backed store implementations. They are
// drop-in replacements for the in-memory stores, selected by config.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dkeye/cowatch/internal/core"
	"github.com/dkeye/cowatch/internal/domain"
)

// RedisPresence keeps each room's joined usernames in a redis set.
// The key TTL is refreshed on every mutation so abandoned rooms expire.
type RedisPresence struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPresence(client *redis.Client, ttl time.Duration) *RedisPresence {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisPresence{client: client, ttl: ttl}
}

func (p *RedisPresence) key(code domain.RoomCode) string {
	return fmt.Sprintf("presence:%s", code)
}

func (p *RedisPresence) AddMember(ctx context.Context, code domain.RoomCode, username string) (int, error) {
	key := p.key(code)
	pipe := p.client.TxPipeline()
	pipe.SAdd(ctx, key, username)
	card := pipe.SCard(ctx, key)
	pipe.Expire(ctx, key, p.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(card.Val()), nil
}

func (p *RedisPresence) RemoveMember(ctx context.Context, code domain.RoomCode, username string) (int, error) {
	key := p.key(code)
	pipe := p.client.TxPipeline()
	pipe.SRem(ctx, key, username)
	card := pipe.SCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(card.Val()), nil
}

func (p *RedisPresence) Count(ctx context.Context, code domain.RoomCode) (int, error) {
	n, err := p.client.SCard(ctx, p.key(code)).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

var _ core.PresenceStore = (*RedisPresence)(nil)
