package game

import "errors"

// 对局协议错误
// 这些错误属于连接级违规（掉线处理），不是对局结局；
// 无法出牌导致的结局由 Result 表达，不走 error

var (
	ErrGameNotStarted   = errors.New("GAME_NOT_STARTED")
	ErrGameEnded        = errors.New("GAME_ENDED")
	ErrNotYourTurn      = errors.New("NOT_YOUR_TURN")
	ErrUnknownPlayer    = errors.New("UNKNOWN_PLAYER")
	ErrInvalidLane      = errors.New("INVALID_LANE")
	ErrCardNotInHand    = errors.New("CARD_NOT_IN_HAND")
	ErrTurnNotSatisfied = errors.New("TURN_NOT_SATISFIED")
)
