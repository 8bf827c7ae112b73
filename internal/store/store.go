package store

import (
	"context"
	"errors"

	"github.com/sh1zukey/TheGameOnline-BE/internal/model"
)

var (
	ErrRoomNotFound = errors.New("ROOM_NOT_FOUND")
	ErrRoomBusy     = errors.New("ROOM_BUSY")
)

// RoomStore 房间持久化接口
// 以 roomId 为键的 KV 存储，是跨连接任务的唯一可信状态源
//
// Lock 提供按房间粒度的互斥：任何读-改-写序列必须先拿到锁，
// 保证同一房间同一时刻至多一个在途变更
type RoomStore interface {
	Exists(ctx context.Context, roomID string) (bool, error)
	Get(ctx context.Context, roomID string) (*model.Room, error)
	Set(ctx context.Context, room *model.Room) error
	Delete(ctx context.Context, roomID string) error

	// Lock 获取房间锁，返回释放函数；房间正被其他操作占用时返回 ErrRoomBusy
	Lock(ctx context.Context, roomID string) (func(), error)
}
