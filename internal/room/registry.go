package room

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sh1zukey/TheGameOnline-BE/internal/deck"
	"github.com/sh1zukey/TheGameOnline-BE/internal/game"
	"github.com/sh1zukey/TheGameOnline-BE/internal/model"
	"github.com/sh1zukey/TheGameOnline-BE/internal/store"
)

// Options 房间规则参数（启动配置注入）
type Options struct {
	DeckSize int // 整副牌张数（牌值 2..DeckSize+1）
	HandSize int // 开局手牌数
}

// Registry 房间注册表
// 负责建房/加入、满员开局触发、以及把回合事件交给引擎执行。
// 每次变更都是对存储的读-改-写：先拿房间锁，改写工作副本，
// 写回成功前不对外可见；被拒绝的副本整体丢弃。
type Registry struct {
	store  store.RoomStore
	engine *game.Engine
	deck   *deck.Service
	opts   Options
	logger *slog.Logger
}

// NewRegistry 创建房间注册表
func NewRegistry(s store.RoomStore, engine *game.Engine, deckService *deck.Service, opts Options) *Registry {
	return &Registry{
		store:  s,
		engine: engine,
		deck:   deckService,
		opts:   opts,
		logger: slog.Default().With("component", "RoomRegistry"),
	}
}

// JoinOutcome 加入房间的结果
type JoinOutcome struct {
	Room    *model.Room
	Started bool // 本次加入是否恰好触发开局
}

// Join 加入房间；首个加入者建房
//
// 建房必须携带 capacity（缺失则拒绝且不落任何状态）；
// 第 capacity 个玩家加入的瞬间发牌开局，开局恰好发生一次。
// 已满或已开局的房间拒绝新加入者，房间本身不受影响。
func (r *Registry) Join(ctx context.Context, roomID, playerID, displayName string, capacity *int) (*JoinOutcome, error) {
	unlock, err := r.store.Lock(ctx, roomID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	exists, err := r.store.Exists(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if !exists {
		return r.create(ctx, roomID, playerID, displayName, capacity)
	}

	rm, err := r.store.Get(ctx, roomID)
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	if rm.Phase != model.PhaseReady {
		return nil, ErrGameStarted
	}
	if len(rm.Players) >= rm.Capacity {
		return nil, ErrRoomFull
	}
	if rm.FindPlayer(playerID) != nil {
		return nil, ErrAlreadyInRoom
	}

	rm.Players = append(rm.Players, model.Player{
		ID:   playerID,
		Name: displayName,
		Hand: []int{},
	})
	rm.UpdatedAt = time.Now()

	started := len(rm.Players) == rm.Capacity
	if started {
		r.engine.Start(rm, r.opts.HandSize)
	}

	if err := r.store.Set(ctx, rm); err != nil {
		return nil, err
	}

	r.logger.Info("Player joined room",
		"roomId", roomID,
		"playerId", playerID,
		"players", len(rm.Players),
		"capacity", rm.Capacity,
		"started", started)

	return &JoinOutcome{Room: rm, Started: started}, nil
}

// create 首个加入者建房
func (r *Registry) create(ctx context.Context, roomID, playerID, displayName string, capacity *int) (*JoinOutcome, error) {
	if capacity == nil {
		return nil, ErrCapacityRequired
	}
	if *capacity < 2 {
		return nil, ErrInvalidCapacity
	}

	now := time.Now()
	rm := &model.Room{
		RoomID:   roomID,
		Capacity: *capacity,
		Players: []model.Player{
			{ID: playerID, Name: displayName, Hand: []int{}},
		},
		DrawPile:  r.deck.NewShuffledDeck(r.opts.DeckSize),
		Lanes:     model.NewLanes(),
		TurnIndex: -1,
		MinPlays:  2,
		Phase:     model.PhaseReady,
		DeckSize:  r.opts.DeckSize,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := r.store.Set(ctx, rm); err != nil {
		return nil, err
	}

	r.logger.Info("Room created",
		"roomId", roomID,
		"creator", playerID,
		"capacity", rm.Capacity,
		"deckSize", r.opts.DeckSize)

	return &JoinOutcome{Room: rm, Started: false}, nil
}

// Play 执行出牌事件
// 返回写回后的房间快照与引擎转移结果；协议违规时不产生任何写入
func (r *Registry) Play(ctx context.Context, roomID, playerID string, card, lane int) (*model.Room, game.Result, error) {
	return r.mutate(ctx, roomID, func(rm *model.Room) (game.Result, error) {
		return r.engine.Play(rm, playerID, card, lane)
	})
}

// EndTurn 执行回合结束事件
func (r *Registry) EndTurn(ctx context.Context, roomID, playerID string) (*model.Room, game.Result, error) {
	return r.mutate(ctx, roomID, func(rm *model.Room) (game.Result, error) {
		return r.engine.EndTurn(rm, playerID)
	})
}

// mutate 在房间锁内执行一次读-改-写
// 终局时先持久化终态再删除键（持久化后驱逐）
func (r *Registry) mutate(ctx context.Context, roomID string, fn func(*model.Room) (game.Result, error)) (*model.Room, game.Result, error) {
	unlock, err := r.store.Lock(ctx, roomID)
	if err != nil {
		return nil, game.Result{}, err
	}
	defer unlock()

	rm, err := r.store.Get(ctx, roomID)
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			return nil, game.Result{}, ErrRoomNotFound
		}
		return nil, game.Result{}, err
	}

	result, err := fn(rm)
	if err != nil {
		// 工作副本整体丢弃
		return nil, game.Result{}, err
	}

	if err := r.store.Set(ctx, rm); err != nil {
		return nil, game.Result{}, err
	}

	if result.Transition == game.TransitionEnded {
		if err := r.store.Delete(ctx, roomID); err != nil {
			r.logger.Warn("Failed to evict ended room", "roomId", roomID, "error", err)
		}
	}

	return rm, result, nil
}

// Get 读取房间快照
func (r *Registry) Get(ctx context.Context, roomID string) (*model.Room, error) {
	rm, err := r.store.Get(ctx, roomID)
	if errors.Is(err, store.ErrRoomNotFound) {
		return nil, ErrRoomNotFound
	}
	return rm, err
}

// Teardown 删除房间状态
// 用于中途掉线导致的整房终止；键不存在时不视为错误
func (r *Registry) Teardown(ctx context.Context, roomID string) error {
	unlock, err := r.store.Lock(ctx, roomID)
	if err != nil {
		if errors.Is(err, store.ErrRoomBusy) {
			// 锁被占用也要尽力清理，直接删除
			return r.store.Delete(ctx, roomID)
		}
		return err
	}
	defer unlock()

	return r.store.Delete(ctx, roomID)
}
