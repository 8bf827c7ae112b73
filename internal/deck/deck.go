package deck

import (
	"math/rand"
	"sort"
	"time"

	"github.com/sh1zukey/TheGameOnline-BE/internal/model"
)

// Service 牌堆服务
// 负责生成洗好的牌堆、开局发牌和回合补牌
// 随机性只来自开局洗牌，发牌和补牌固定从牌堆末尾取
type Service struct {
	rng *rand.Rand
}

// NewService 创建牌堆服务；rng 为 nil 时使用时间种子
func NewService(rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{rng: rng}
}

// NewShuffledDeck 生成 2..size+1 的牌序列并做 Fisher–Yates 均匀洗牌
func (s *Service) NewShuffledDeck(size int) []int {
	cards := make([]int, size)
	for i := range cards {
		cards[i] = i + 2
	}
	s.rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return cards
}

// Deal 开局发牌
// 按玩家加入顺序，每人从牌堆末尾取 handSize 张，手牌升序排列
func (s *Service) Deal(room *model.Room, handSize int) {
	for i := range room.Players {
		var hand []int
		room.DrawPile, hand = takeFromEnd(room.DrawPile, handSize)
		sort.Ints(hand)
		room.Players[i].Hand = hand
		room.Players[i].PlaysThisTurn = 0
	}
}

// Replenish 回合结束补牌
// 从牌堆末尾最多取 count 张并入手牌，重新升序排列
func (s *Service) Replenish(room *model.Room, player *model.Player, count int) {
	var drawn []int
	room.DrawPile, drawn = takeFromEnd(room.DrawPile, count)
	player.Hand = append(player.Hand, drawn...)
	sort.Ints(player.Hand)
}

// takeFromEnd 从切片末尾取最多 n 个元素，返回剩余部分和取出部分
func takeFromEnd(cards []int, n int) (remaining, taken []int) {
	if n > len(cards) {
		n = len(cards)
	}
	cut := len(cards) - n
	taken = append([]int{}, cards[cut:]...)
	return cards[:cut], taken
}
