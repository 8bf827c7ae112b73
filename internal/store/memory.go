package store

import (
	"context"
	"sync"

	"github.com/sh1zukey/TheGameOnline-BE/internal/model"
)

// MemoryStore 内存实现
// 用于测试和单机部署；与 RedisStore 保持相同的锁语义
type MemoryStore struct {
	mu    sync.Mutex
	rooms map[string]*model.Room
	locks map[string]bool
}

// NewMemoryStore 创建内存房间存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms: make(map[string]*model.Room),
		locks: make(map[string]bool),
	}
}

func (s *MemoryStore) Exists(_ context.Context, roomID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rooms[roomID]
	return ok, nil
}

func (s *MemoryStore) Get(_ context.Context, roomID string) (*model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	// 返回深拷贝，调用方持有的是私有工作副本
	return room.Clone(), nil
}

func (s *MemoryStore) Set(_ context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.RoomID] = room.Clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomID)
	return nil
}

func (s *MemoryStore) Lock(_ context.Context, roomID string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks[roomID] {
		return nil, ErrRoomBusy
	}
	s.locks[roomID] = true

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.locks, roomID)
	}, nil
}
