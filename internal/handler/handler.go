package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/sh1zukey/TheGameOnline-BE/internal/connection"
	"github.com/sh1zukey/TheGameOnline-BE/internal/game"
	"github.com/sh1zukey/TheGameOnline-BE/internal/model"
	"github.com/sh1zukey/TheGameOnline-BE/internal/proto"
	"github.com/sh1zukey/TheGameOnline-BE/internal/room"
	"github.com/sh1zukey/TheGameOnline-BE/internal/snowflake"
	"github.com/sh1zukey/TheGameOnline-BE/internal/store"
)

// LifecyclePublisher 房间生命周期事件发布（可选依赖，nil 表示关闭）
type LifecyclePublisher interface {
	RoomStarted(room *model.Room)
	RoomEnded(room *model.Room)
}

// ResultRecorder 终局结果落库（可选依赖，nil 表示关闭）
type ResultRecorder interface {
	Record(ctx context.Context, room *model.Room) error
}

// Handler 上行事件分发器
// 把传输适配器解出的消息路由到房间注册表，并负责下行广播。
// 广播顺序恒为先写存储后广播（写失败只通知操作者，不当作成功）。
type Handler struct {
	registry  *room.Registry
	connMgr   *connection.Manager
	publisher LifecyclePublisher
	recorder  ResultRecorder
	logger    *slog.Logger
}

// NewHandler 创建事件分发器
func NewHandler(registry *room.Registry, connMgr *connection.Manager, publisher LifecyclePublisher, recorder ResultRecorder) *Handler {
	return &Handler{
		registry:  registry,
		connMgr:   connMgr,
		publisher: publisher,
		recorder:  recorder,
		logger:    slog.Default().With("component", "Handler"),
	}
}

// playerID 连接在会话内的玩家标识
func playerID(conn connection.Conn) string {
	return snowflake.Int64ToString(conn.ID())
}

// HandleMessage 处理一条上行消息
// 缺失必填字段、指向不存在的房间、或违反回合协议的请求
// 直接断开违规连接，引擎从不猜测缺省身份或房间
func (h *Handler) HandleMessage(ctx context.Context, conn connection.Conn, data []byte) {
	var msg proto.ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.logger.Warn("Malformed message, dropping connection", "connId", conn.ID(), "error", err)
		h.drop(conn)
		return
	}

	switch msg.Type {
	case proto.MsgJoin:
		h.handleJoin(ctx, conn, msg.Join)
	case proto.MsgPlay:
		h.handlePlay(ctx, conn, msg.Play)
	case proto.MsgTurnEnd:
		h.handleTurnEnd(ctx, conn)
	default:
		h.logger.Warn("Unknown message type, dropping connection", "connId", conn.ID(), "type", msg.Type)
		h.drop(conn)
	}
}

// handleJoin 处理加入请求
func (h *Handler) handleJoin(ctx context.Context, conn connection.Conn, req *proto.JoinRequest) {
	if req == nil || req.RoomID == "" || req.DisplayName == "" {
		h.logger.Warn("Join request missing required fields", "connId", conn.ID())
		h.drop(conn)
		return
	}
	if _, bound := h.connMgr.RoomOf(conn.ID()); bound {
		h.logger.Warn("Connection already in a room", "connId", conn.ID())
		h.drop(conn)
		return
	}

	outcome, err := h.registry.Join(ctx, req.RoomID, playerID(conn), req.DisplayName, req.Capacity)
	if err != nil {
		h.logger.Warn("Join rejected",
			"connId", conn.ID(),
			"roomId", req.RoomID,
			"error", err)
		// 只断开违规连接，房间不受影响
		h.sendError(conn, joinErrorMessage(err))
		h.drop(conn)
		return
	}

	h.connMgr.BindRoom(conn.ID(), req.RoomID)

	if outcome.Started {
		h.broadcast(req.RoomID, proto.NewRoomEvent(proto.EventRoomStarted, outcome.Room))
		if h.publisher != nil {
			h.publisher.RoomStarted(outcome.Room)
		}
		return
	}
	h.broadcast(req.RoomID, proto.NewRoomEvent(proto.EventRoomReady, outcome.Room))
}

// handlePlay 处理出牌请求
func (h *Handler) handlePlay(ctx context.Context, conn connection.Conn, req *proto.PlayRequest) {
	roomID, bound := h.connMgr.RoomOf(conn.ID())
	if !bound || req == nil {
		h.drop(conn)
		return
	}

	rm, result, err := h.registry.Play(ctx, roomID, playerID(conn), req.Card, req.Lane)
	if err != nil {
		h.handleMutationError(conn, roomID, err)
		return
	}

	if result.Transition == game.TransitionEnded {
		h.finishRoom(ctx, roomID, rm, result.EndCause)
		return
	}
	h.broadcast(roomID, proto.NewRoomUpdated(rm, proto.CauseUpdate))
}

// handleTurnEnd 处理回合结束请求
func (h *Handler) handleTurnEnd(ctx context.Context, conn connection.Conn) {
	roomID, bound := h.connMgr.RoomOf(conn.ID())
	if !bound {
		h.drop(conn)
		return
	}

	rm, result, err := h.registry.EndTurn(ctx, roomID, playerID(conn))
	if err != nil {
		h.handleMutationError(conn, roomID, err)
		return
	}

	if result.Transition == game.TransitionEnded {
		h.finishRoom(ctx, roomID, rm, result.EndCause)
		return
	}
	h.broadcast(roomID, proto.NewRoomUpdated(rm, proto.CauseNextTurn))
}

// HandleDisconnect 连接断开（关闭或传输错误）
// 对局中任何一人掉线都会立刻终止整个房间：
// 广播错误、强制关闭其余连接、删除持久化状态。没有重连路径
func (h *Handler) HandleDisconnect(ctx context.Context, conn connection.Conn) {
	roomID, bound := h.connMgr.RoomOf(conn.ID())
	h.connMgr.Remove(conn.ID())
	if !bound {
		return
	}

	h.logger.Info("Player disconnected, terminating room", "connId", conn.ID(), "roomId", roomID)

	h.broadcast(roomID, proto.NewRoomError("A player disconnected, the game has been terminated"))
	h.connMgr.CloseRoom(roomID)

	if err := h.registry.Teardown(ctx, roomID); err != nil {
		h.logger.Error("Failed to tear down room", "roomId", roomID, "error", err)
	}
}

// finishRoom 终局处理：广播结局、落库、发布事件、关闭房间连接
// 存储键已由注册表在持久化终态后删除
func (h *Handler) finishRoom(ctx context.Context, roomID string, rm *model.Room, cause model.EndCause) {
	h.broadcast(roomID, proto.NewRoomEnded(rm, cause))

	if h.recorder != nil {
		if err := h.recorder.Record(ctx, rm); err != nil {
			h.logger.Error("Failed to record game result", "roomId", roomID, "error", err)
		}
	}
	if h.publisher != nil {
		h.publisher.RoomEnded(rm)
	}

	h.connMgr.CloseRoom(roomID)
}

// handleMutationError 区分协议违规与暂时性失败
func (h *Handler) handleMutationError(conn connection.Conn, roomID string, err error) {
	switch {
	case errors.Is(err, store.ErrRoomBusy):
		// 房间正被并发操作占用，只通知操作者重试
		h.sendError(conn, "Room is busy, please retry")
	case errors.Is(err, room.ErrRoomNotFound):
		h.logger.Warn("Mutation references stale room, dropping connection", "connId", conn.ID(), "roomId", roomID)
		h.drop(conn)
	case errors.Is(err, game.ErrNotYourTurn),
		errors.Is(err, game.ErrUnknownPlayer),
		errors.Is(err, game.ErrCardNotInHand),
		errors.Is(err, game.ErrInvalidLane),
		errors.Is(err, game.ErrTurnNotSatisfied),
		errors.Is(err, game.ErrGameNotStarted),
		errors.Is(err, game.ErrGameEnded):
		h.logger.Warn("Protocol violation, dropping connection", "connId", conn.ID(), "error", err)
		h.drop(conn)
	default:
		// 存储故障等：向操作者返回通用失败，绝不把失败当成功广播
		h.logger.Error("Mutation failed", "roomId", roomID, "error", err)
		h.sendError(conn, "Internal server error")
	}
}

// drop 断开单个连接
func (h *Handler) drop(conn connection.Conn) {
	conn.Close()
}

// broadcast 向房间广播一条下行消息
func (h *Handler) broadcast(roomID string, msg *proto.ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to marshal server message", "error", err, "type", msg.Type)
		return
	}
	h.connMgr.BroadcastRoom(roomID, data)
}

// sendError 只向单个连接发送错误
func (h *Handler) sendError(conn connection.Conn, message string) {
	data, err := json.Marshal(proto.NewRoomError(message))
	if err != nil {
		return
	}
	if err := conn.Send(data); err != nil && !errors.Is(err, connection.ErrConnectionClosed) {
		h.logger.Warn("Failed to send error to connection", "connId", conn.ID(), "error", err)
	}
}

// joinErrorMessage 加入失败的用户可见提示
func joinErrorMessage(err error) string {
	switch {
	case errors.Is(err, room.ErrCapacityRequired):
		return "Capacity is required to create a room"
	case errors.Is(err, room.ErrInvalidCapacity):
		return "Invalid room capacity"
	case errors.Is(err, room.ErrRoomFull):
		return "Room is full"
	case errors.Is(err, room.ErrGameStarted):
		return "Game has already started"
	case errors.Is(err, room.ErrAlreadyInRoom):
		return "Already in the room"
	default:
		return "Failed to join room"
	}
}
