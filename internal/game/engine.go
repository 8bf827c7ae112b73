package game

import (
	"log/slog"
	"time"

	"github.com/sh1zukey/TheGameOnline-BE/internal/deck"
	"github.com/sh1zukey/TheGameOnline-BE/internal/model"
)

// Transition 一次回合事件产生的状态转移种类
type Transition int

const (
	TransitionUpdate   Transition = iota // 出牌生效，对局继续
	TransitionNextTurn                   // 回合轮转，对局继续
	TransitionEnded                      // 对局终结
)

// Result 回合事件的处理结果
// Transition 为 TransitionEnded 时 EndCause 有效
type Result struct {
	Transition Transition
	EndCause   model.EndCause
}

// Engine 回合引擎（状态机）
// 在房间工作副本上执行转移：推进回合、校验最少出牌数、
// 判定终局条件、在下家无牌可出时终结对局
//
// Engine 自身无状态，所有方法只改写传入的 *model.Room
type Engine struct {
	deck             *deck.Service
	nearEndThreshold int
	logger           *slog.Logger
}

// NewEngine 创建回合引擎
// nearEndThreshold: 剩余牌数降到该值以下（含）即进入终局前阶段
func NewEngine(deckService *deck.Service, nearEndThreshold int) *Engine {
	return &Engine{
		deck:             deckService,
		nearEndThreshold: nearEndThreshold,
		logger:           slog.Default().With("component", "Engine"),
	}
}

// Start 开局：发牌并把回合指到首位玩家
// 恰好在第 capacity 个玩家加入时触发一次
// 发完牌后若牌堆已空，最少出牌数立即降为 1
func (e *Engine) Start(room *model.Room, handSize int) {
	e.deck.Deal(room, handSize)
	room.TurnIndex = 0
	room.Phase = model.PhaseInProgress
	if len(room.DrawPile) == 0 {
		room.MinPlays = 1
	}
	room.UpdatedAt = time.Now()

	e.logger.Info("Game started",
		"roomId", room.RoomID,
		"players", len(room.Players),
		"drawPile", len(room.DrawPile),
		"minPlays", room.MinPlays)
}

// Play 处理出牌请求（只接受意图：哪张牌、哪条牌道，服务端是唯一的状态改写者）
//
// 协议违规（非当前回合玩家、牌不在手牌、牌道索引非法）返回 error；
// 出牌不合法或玩家已无合法出牌时不返回 error，而是终结对局（结局广播给全房间）
func (e *Engine) Play(room *model.Room, playerID string, card, lane int) (Result, error) {
	if err := e.checkActing(room, playerID); err != nil {
		return Result{}, err
	}
	if lane < 0 || lane >= model.LaneCount {
		return Result{}, ErrInvalidLane
	}

	player := room.CurrentPlayer()
	handIndex := indexOf(player.Hand, card)
	if handIndex < 0 {
		return Result{}, ErrCardNotInHand
	}

	if !LaneLegal(room, card, lane) || !HasAnyLegalPlay(player.Hand, room) {
		return e.end(room, e.forcedEndCause(room)), nil
	}

	// 落牌：手牌 -> 牌道
	player.Hand = append(player.Hand[:handIndex], player.Hand[handIndex+1:]...)
	room.Lanes[lane] = append(room.Lanes[lane], card)
	player.PlaysThisTurn++
	room.UpdatedAt = time.Now()

	remaining := room.RemainingCards()
	if remaining == 0 {
		return e.end(room, model.EndFullClear), nil
	}
	if remaining <= e.nearEndThreshold && room.Phase == model.PhaseInProgress {
		room.Phase = model.PhaseNearEnd
		e.logger.Info("Room entered near-end phase", "roomId", room.RoomID, "remaining", remaining)
	}

	return Result{Transition: TransitionUpdate}, nil
}

// EndTurn 处理回合结束请求
//
// 当前玩家需已满足最少出牌数（手牌出完的玩家随时可过）。
// 提交回合前先检查下家是否还有合法出牌（或已出完）；
// 无路可走时对局终结，不做补牌和轮转。
// 否则：按本回合出牌数补牌、重置计数、回合指针取模前进，
// 牌堆一旦抽空，最少出牌数永久降为 1。
func (e *Engine) EndTurn(room *model.Room, playerID string) (Result, error) {
	if err := e.checkActing(room, playerID); err != nil {
		return Result{}, err
	}

	player := room.CurrentPlayer()
	if player.PlaysThisTurn < room.MinPlays && len(player.Hand) > 0 {
		return Result{}, ErrTurnNotSatisfied
	}

	next := (room.TurnIndex + 1) % len(room.Players)
	if !HasAnyLegalPlay(room.Players[next].Hand, room) {
		return e.end(room, e.forcedEndCause(room)), nil
	}

	e.deck.Replenish(room, player, player.PlaysThisTurn)
	player.PlaysThisTurn = 0
	room.TurnIndex = next
	if len(room.DrawPile) == 0 {
		room.MinPlays = 1
	}
	room.UpdatedAt = time.Now()

	return Result{Transition: TransitionNextTurn}, nil
}

// checkActing 校验事件来自当前回合玩家且对局可行动
func (e *Engine) checkActing(room *model.Room, playerID string) error {
	switch room.Phase {
	case model.PhaseReady:
		return ErrGameNotStarted
	case model.PhaseEnded:
		return ErrGameEnded
	}

	if room.FindPlayer(playerID) == nil {
		return ErrUnknownPlayer
	}
	current := room.CurrentPlayer()
	if current == nil || current.ID != playerID {
		return ErrNotYourTurn
	}
	return nil
}

// forcedEndCause 依当前阶段对被迫终局分类
func (e *Engine) forcedEndCause(room *model.Room) model.EndCause {
	if room.Phase == model.PhaseNearEnd {
		return model.EndNearEndForcedStop
	}
	return model.EndBadEnd
}

// end 把房间转入终态
func (e *Engine) end(room *model.Room, cause model.EndCause) Result {
	room.Phase = model.PhaseEnded
	room.EndCause = cause
	room.UpdatedAt = time.Now()

	e.logger.Info("Game ended",
		"roomId", room.RoomID,
		"cause", cause,
		"remaining", room.RemainingCards())

	return Result{Transition: TransitionEnded, EndCause: cause}
}

func indexOf(cards []int, card int) int {
	for i, c := range cards {
		if c == card {
			return i
		}
	}
	return -1
}
