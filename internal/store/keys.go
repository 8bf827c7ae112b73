package store

import "fmt"

const (
	// RoomKeyPrefix 房间状态 Redis Key 前缀
	RoomKeyPrefix = "thegame:room:"

	// RoomLockKeyPrefix 房间锁 Redis Key 前缀
	RoomLockKeyPrefix = "thegame:room:lock:"
)

// BuildRoomKey 构建房间状态 Key
func BuildRoomKey(roomID string) string {
	return fmt.Sprintf("%s%s", RoomKeyPrefix, roomID)
}

// BuildRoomLockKey 构建房间锁 Key
func BuildRoomLockKey(roomID string) string {
	return fmt.Sprintf("%s%s", RoomLockKeyPrefix, roomID)
}
