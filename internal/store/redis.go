package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sh1zukey/TheGameOnline-BE/internal/model"
)

const (
	// 房间锁 TTL：持有者崩溃时由过期兜底
	roomLockTTL = 5 * time.Second
)

// RedisStore 基于 Redis 的房间存储
// 房间状态 JSON 序列化后整体写入；按房间粒度用 SetNX 锁串行化变更
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisStore 创建 Redis 房间存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		logger: slog.Default().With("component", "RedisStore"),
	}
}

func (s *RedisStore) Exists(ctx context.Context, roomID string) (bool, error) {
	n, err := s.client.Exists(ctx, BuildRoomKey(roomID)).Result()
	if err != nil {
		s.logger.Error("Failed to check room existence", "roomId", roomID, "error", err)
		return false, err
	}
	return n > 0, nil
}

func (s *RedisStore) Get(ctx context.Context, roomID string) (*model.Room, error) {
	data, err := s.client.Get(ctx, BuildRoomKey(roomID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		s.logger.Error("Failed to get room", "roomId", roomID, "error", err)
		return nil, err
	}

	var room model.Room
	if err := json.Unmarshal([]byte(data), &room); err != nil {
		s.logger.Error("Failed to unmarshal room", "roomId", roomID, "error", err)
		return nil, fmt.Errorf("failed to unmarshal room %s: %w", roomID, err)
	}
	return &room, nil
}

func (s *RedisStore) Set(ctx context.Context, room *model.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("failed to marshal room %s: %w", room.RoomID, err)
	}

	if err := s.client.Set(ctx, BuildRoomKey(room.RoomID), data, 0).Err(); err != nil {
		s.logger.Error("Failed to set room", "roomId", room.RoomID, "error", err)
		return err
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, roomID string) error {
	if err := s.client.Del(ctx, BuildRoomKey(roomID)).Err(); err != nil {
		s.logger.Error("Failed to delete room", "roomId", roomID, "error", err)
		return err
	}
	return nil
}

// Lock 获取房间级分布式锁
// SetNX 抢锁失败说明房间正被其他操作占用，调用方应拒绝而非等待
func (s *RedisStore) Lock(ctx context.Context, roomID string) (func(), error) {
	lockKey := BuildRoomLockKey(roomID)
	locked, err := s.client.SetNX(ctx, lockKey, "1", roomLockTTL).Result()
	if err != nil {
		s.logger.Error("Failed to acquire room lock", "roomId", roomID, "error", err)
		return nil, err
	}
	if !locked {
		s.logger.Warn("Room is locked by another operation", "roomId", roomID)
		return nil, ErrRoomBusy
	}

	return func() {
		if err := s.client.Del(context.Background(), lockKey).Err(); err != nil {
			s.logger.Warn("Failed to release room lock", "roomId", roomID, "error", err)
		}
	}, nil
}
