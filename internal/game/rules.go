package game

import "github.com/sh1zukey/TheGameOnline-BE/internal/model"

// IsLegalPlay 单张牌对单条牌道的合法性判定（纯函数）
//
// 降序道：道空、或牌严格小于顶牌、或恰好等于顶牌+10（逆跳规则）
// 升序道：道空、或牌严格大于顶牌、或恰好等于顶牌-10
// 两个条件各自独立充分，±10 逆跳不受单调方向约束
func IsLegalPlay(card, top int, hasTop, descending bool) bool {
	if !hasTop {
		return true
	}
	if descending {
		return card < top || card == top+10
	}
	return card > top || card == top-10
}

// LaneLegal 判定一张牌能否落在房间的指定牌道上
func LaneLegal(room *model.Room, card, lane int) bool {
	top, hasTop := room.LaneTop(lane)
	return IsLegalPlay(card, top, hasTop, model.LaneIsDescending(lane))
}

// HasAnyLegalPlay 判定一手牌对四条牌道是否还有任何合法出牌
// 空手牌按约定视为随时可过（玩家已出完，不算被卡死）
func HasAnyLegalPlay(hand []int, room *model.Room) bool {
	if len(hand) == 0 {
		return true
	}
	for _, card := range hand {
		for lane := 0; lane < model.LaneCount; lane++ {
			if LaneLegal(room, card, lane) {
				return true
			}
		}
	}
	return false
}
