package room

import "errors"

// 房间错误定义

var (
	ErrRoomNotFound     = errors.New("ROOM_NOT_FOUND")
	ErrRoomFull         = errors.New("ROOM_FULL")
	ErrGameStarted      = errors.New("GAME_STARTED")
	ErrCapacityRequired = errors.New("CAPACITY_REQUIRED")
	ErrInvalidCapacity  = errors.New("INVALID_CAPACITY")
	ErrAlreadyInRoom    = errors.New("ALREADY_IN_ROOM")
)
