package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dkeye/cowatch/internal/core"
	"github.com/dkeye/cowatch/internal/domain"
)

// redisRoomMeta is the stored shape. OwnerToken is json:"-" on the
// domain struct, so it is carried explicitly here.
type redisRoomMeta struct {
	domain.RoomMeta
	OwnerToken string `json:"owner_token"`
}

// RedisRooms stores room records as JSON under room:<code> with a TTL,
// plus a per-owner index set for listing.
type RedisRooms struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRooms(client *redis.Client, ttl time.Duration) *RedisRooms {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisRooms{client: client, ttl: ttl}
}

func (s *RedisRooms) key(code domain.RoomCode) string {
	return fmt.Sprintf("room:%s", code)
}

func (s *RedisRooms) ownerKey(token string) string {
	return fmt.Sprintf("rooms:owner:%s", token)
}

func (s *RedisRooms) Create(ctx context.Context, meta *domain.RoomMeta) error {
	data, err := json.Marshal(redisRoomMeta{RoomMeta: *meta, OwnerToken: meta.OwnerToken})
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(meta.Code), data, s.ttl)
	pipe.SAdd(ctx, s.ownerKey(meta.OwnerToken), string(meta.Code))
	pipe.Expire(ctx, s.ownerKey(meta.OwnerToken), s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisRooms) GetByCode(ctx context.Context, code domain.RoomCode) (*domain.RoomMeta, error) {
	data, err := s.client.Get(ctx, s.key(code)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var stored redisRoomMeta
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return nil, err
	}
	meta := stored.RoomMeta
	meta.OwnerToken = stored.OwnerToken
	return &meta, nil
}

func (s *RedisRooms) ListByOwner(ctx context.Context, ownerToken string) ([]domain.RoomMeta, error) {
	codes, err := s.client.SMembers(ctx, s.ownerKey(ownerToken)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.RoomMeta, 0, len(codes))
	for _, code := range codes {
		meta, err := s.GetByCode(ctx, domain.RoomCode(code))
		if err != nil {
			return nil, err
		}
		if meta == nil {
			// Record expired under the index; drop the stale entry.
			_ = s.client.SRem(ctx, s.ownerKey(ownerToken), code).Err()
			continue
		}
		out = append(out, *meta)
	}
	return out, nil
}

func (s *RedisRooms) Delete(ctx context.Context, code domain.RoomCode) error {
	meta, err := s.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(code))
	if meta != nil {
		pipe.SRem(ctx, s.ownerKey(meta.OwnerToken), string(code))
	}
	_, err = pipe.Exec(ctx)
	return err
}

var _ core.RoomStore = (*RedisRooms)(nil)
