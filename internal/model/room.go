package model

import "time"

// GamePhase 对局阶段
type GamePhase string

const (
	PhaseReady      GamePhase = "ready"       // 等待玩家加入
	PhaseInProgress GamePhase = "in_progress" // 对局进行中
	PhaseNearEnd    GamePhase = "near_end"    // 终局前（残余牌数 <= 阈值）
	PhaseEnded      GamePhase = "ended"       // 已结束（终态，不可再转移）
)

// EndCause 对局结束原因（互斥，按优先级判定）
type EndCause string

const (
	EndFullClear         EndCause = "full_clear"           // 全部出完（最佳结局）
	EndNearEndForcedStop EndCause = "near_end_forced_stop" // 终局前被迫停止
	EndBadEnd            EndCause = "bad_end"              // 普通失败（下家无牌可出）
)

// 牌道索引约定：0、1 为降序道，2、3 为升序道
const (
	LaneDesc1 = 0
	LaneDesc2 = 1
	LaneAsc1  = 2
	LaneAsc2  = 3

	LaneCount = 4
)

// LaneIsDescending 判断牌道是否为降序道
func LaneIsDescending(lane int) bool {
	return lane == LaneDesc1 || lane == LaneDesc2
}

// Player 房间内玩家
type Player struct {
	ID            string `json:"id"`              // 连接会话内稳定的玩家标识
	Name          string `json:"name"`            // 显示名称
	Hand          []int  `json:"hand"`            // 手牌（始终升序排列）
	PlaysThisTurn int    `json:"plays_this_turn"` // 本回合已出牌数
}

// Room 房间聚合，持久化与并发隔离的单位
type Room struct {
	RoomID      string    `json:"room_id"`       // 房间ID（调用方指定的键）
	Capacity    int       `json:"capacity"`      // 人数上限（创建时固定，>= 2）
	Players     []Player  `json:"players"`       // 按加入顺序排列的玩家列表
	DrawPile    []int     `json:"draw_pile"`     // 未发出的牌堆
	Lanes       [][]int   `json:"lanes"`         // 四条牌道（只追加）
	TurnIndex   int       `json:"turn_index"`    // 当前回合玩家索引（开局前为 -1）
	MinPlays    int       `json:"min_plays"`     // 每回合最少出牌数（2 -> 1，单调不增）
	Phase       GamePhase `json:"phase"`         // 对局阶段
	EndCause    EndCause  `json:"end_cause,omitempty"` // 结束原因（仅终态有效）
	DeckSize    int       `json:"deck_size"`     // 整副牌张数（守恒检查基准）
	CreatedAt   time.Time `json:"created_at"`    // 创建时间
	UpdatedAt   time.Time `json:"updated_at"`    // 最后变更时间
}

// NewLanes 创建四条空牌道
func NewLanes() [][]int {
	lanes := make([][]int, LaneCount)
	for i := range lanes {
		lanes[i] = []int{}
	}
	return lanes
}

// LaneTop 返回牌道顶牌；空牌道返回 (0, false)
func (r *Room) LaneTop(lane int) (int, bool) {
	cards := r.Lanes[lane]
	if len(cards) == 0 {
		return 0, false
	}
	return cards[len(cards)-1], true
}

// CurrentPlayer 返回当前回合玩家；开局前返回 nil
func (r *Room) CurrentPlayer() *Player {
	if r.TurnIndex < 0 || r.TurnIndex >= len(r.Players) {
		return nil
	}
	return &r.Players[r.TurnIndex]
}

// FindPlayer 按 ID 查找玩家
func (r *Room) FindPlayer(playerID string) *Player {
	for i := range r.Players {
		if r.Players[i].ID == playerID {
			return &r.Players[i]
		}
	}
	return nil
}

// RemainingCards 返回牌堆与所有手牌的剩余总数
// 牌道只增不减，清空判定只看牌堆和手牌
func (r *Room) RemainingCards() int {
	count := len(r.DrawPile)
	for i := range r.Players {
		count += len(r.Players[i].Hand)
	}
	return count
}

// TotalCards 返回房间内全部牌数（守恒量，应恒等于 DeckSize）
func (r *Room) TotalCards() int {
	count := r.RemainingCards()
	for _, lane := range r.Lanes {
		count += len(lane)
	}
	return count
}

// Clone 深拷贝房间快照
// 连接任务在事务中持有的是私有工作副本，被拒绝时必须整体丢弃
func (r *Room) Clone() *Room {
	snapshot := *r
	snapshot.Players = make([]Player, len(r.Players))
	for i, p := range r.Players {
		snapshot.Players[i] = p
		snapshot.Players[i].Hand = append([]int{}, p.Hand...)
	}
	snapshot.DrawPile = append([]int{}, r.DrawPile...)
	snapshot.Lanes = make([][]int, len(r.Lanes))
	for i, lane := range r.Lanes {
		snapshot.Lanes[i] = append([]int{}, lane...)
	}
	return &snapshot
}
