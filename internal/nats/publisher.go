package nats

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/sh1zukey/TheGameOnline-BE/internal/model"
)

// 房间生命周期事件主题
const (
	SubjectRoomStarted = "thegame.room.started"
	SubjectRoomEnded   = "thegame.room.ended"
)

// RoomEvent 对外发布的房间生命周期事件
type RoomEvent struct {
	RoomID    string    `json:"room_id"`
	Capacity  int       `json:"capacity"`
	Players   int       `json:"players"`
	EndCause  string    `json:"end_cause,omitempty"`
	Remaining int       `json:"remaining"`
	Timestamp time.Time `json:"timestamp"`
}

// LifecyclePublisher 把房间开局/终局事件发布到 NATS
// 供观战、统计等外部订阅者消费；发布失败只记日志，不影响对局
type LifecyclePublisher struct {
	nc     *nats.Conn
	logger *slog.Logger
}

// NewLifecyclePublisher 创建生命周期事件发布器
func NewLifecyclePublisher(nc *nats.Conn) *LifecyclePublisher {
	return &LifecyclePublisher{
		nc:     nc,
		logger: slog.Default().With("component", "LifecyclePublisher"),
	}
}

// RoomStarted 发布开局事件
func (p *LifecyclePublisher) RoomStarted(room *model.Room) {
	p.publish(SubjectRoomStarted, room)
}

// RoomEnded 发布终局事件
func (p *LifecyclePublisher) RoomEnded(room *model.Room) {
	p.publish(SubjectRoomEnded, room)
}

func (p *LifecyclePublisher) publish(subject string, room *model.Room) {
	event := RoomEvent{
		RoomID:    room.RoomID,
		Capacity:  room.Capacity,
		Players:   len(room.Players),
		EndCause:  string(room.EndCause),
		Remaining: room.RemainingCards(),
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal room event", "error", err)
		return
	}

	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Error("Failed to publish room event", "subject", subject, "roomId", room.RoomID, "error", err)
		return
	}

	p.logger.Debug("Published room event", "subject", subject, "roomId", room.RoomID)
}
