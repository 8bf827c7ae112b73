package proto

import "github.com/sh1zukey/TheGameOnline-BE/internal/model"

// 客户端消息类型
const (
	MsgJoin    = "join"
	MsgPlay    = "play"
	MsgTurnEnd = "turn_end"
)

// 服务端消息类型
const (
	EventRoomReady   = "room_ready"
	EventRoomStarted = "room_started"
	EventRoomUpdated = "room_updated"
	EventRoomEnded   = "room_ended"
	EventRoomError   = "room_error"
)

// room_updated 的变更原因
const (
	CauseUpdate   = "update"
	CauseNextTurn = "next_turn"
)

// JoinRequest 加入房间请求
// 首个加入者必须携带 Capacity，由此创建房间
type JoinRequest struct {
	RoomID      string `json:"room_id"`
	DisplayName string `json:"display_name"`
	Capacity    *int   `json:"capacity,omitempty"`
}

// PlayRequest 出牌请求（只提交意图：哪张牌、哪条牌道）
type PlayRequest struct {
	Card int `json:"card"`
	Lane int `json:"lane"`
}

// TurnEndRequest 回合结束请求
type TurnEndRequest struct{}

// ClientMessage 上行消息信封
type ClientMessage struct {
	Type    string          `json:"type"`
	Join    *JoinRequest    `json:"join,omitempty"`
	Play    *PlayRequest    `json:"play,omitempty"`
	TurnEnd *TurnEndRequest `json:"turn_end,omitempty"`
}

// ServerMessage 下行消息信封
type ServerMessage struct {
	Type    string      `json:"type"`
	Room    *model.Room `json:"room,omitempty"`
	Cause   string      `json:"cause,omitempty"`
	Message string      `json:"message,omitempty"`
}

// NewRoomEvent 构造携带房间快照的下行消息
func NewRoomEvent(eventType string, room *model.Room) *ServerMessage {
	return &ServerMessage{Type: eventType, Room: room}
}

// NewRoomUpdated 构造 room_updated 消息
func NewRoomUpdated(room *model.Room, cause string) *ServerMessage {
	return &ServerMessage{Type: EventRoomUpdated, Room: room, Cause: cause}
}

// NewRoomEnded 构造 room_ended 消息
func NewRoomEnded(room *model.Room, cause model.EndCause) *ServerMessage {
	return &ServerMessage{Type: EventRoomEnded, Room: room, Cause: string(cause)}
}

// NewRoomError 构造 room_error 消息
func NewRoomError(message string) *ServerMessage {
	return &ServerMessage{Type: EventRoomError, Message: message}
}
