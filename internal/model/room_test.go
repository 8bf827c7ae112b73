package model

import "testing"

func TestLaneIsDescending(t *testing.T) {
	if !LaneIsDescending(LaneDesc1) || !LaneIsDescending(LaneDesc2) {
		t.Error("Lanes 0 and 1 should be descending")
	}
	if LaneIsDescending(LaneAsc1) || LaneIsDescending(LaneAsc2) {
		t.Error("Lanes 2 and 3 should be ascending")
	}
}

func TestLaneTop(t *testing.T) {
	r := &Room{Lanes: NewLanes()}

	if _, ok := r.LaneTop(LaneDesc1); ok {
		t.Error("Empty lane should have no top")
	}

	r.Lanes[LaneDesc1] = []int{50, 49, 59}
	top, ok := r.LaneTop(LaneDesc1)
	if !ok || top != 59 {
		t.Errorf("Expected top 59, got %d (ok=%v)", top, ok)
	}
}

func TestCurrentPlayer(t *testing.T) {
	r := &Room{
		Players:   []Player{{ID: "p1"}, {ID: "p2"}},
		TurnIndex: -1,
	}

	if r.CurrentPlayer() != nil {
		t.Error("No current player before start")
	}

	r.TurnIndex = 1
	if p := r.CurrentPlayer(); p == nil || p.ID != "p2" {
		t.Errorf("Expected p2, got %+v", p)
	}
}

func TestRemainingCards(t *testing.T) {
	r := &Room{
		Players: []Player{
			{ID: "p1", Hand: []int{10, 20}},
			{ID: "p2", Hand: []int{30}},
		},
		DrawPile: []int{40, 50, 60},
		Lanes:    [][]int{{70}, {}, {}, {}},
	}

	// 牌道上的牌不计入剩余
	if got := r.RemainingCards(); got != 6 {
		t.Errorf("Expected 6 remaining, got %d", got)
	}
	if got := r.TotalCards(); got != 7 {
		t.Errorf("Expected 7 total, got %d", got)
	}
}

func TestClone_DeepCopy(t *testing.T) {
	r := &Room{
		RoomID:   "room-1",
		Players:  []Player{{ID: "p1", Hand: []int{10, 20}}},
		DrawPile: []int{30},
		Lanes:    [][]int{{40}, {}, {}, {}},
	}

	c := r.Clone()
	c.Players[0].Hand[0] = 99
	c.DrawPile[0] = 99
	c.Lanes[0][0] = 99

	if r.Players[0].Hand[0] != 10 {
		t.Errorf("Original hand mutated: %v", r.Players[0].Hand)
	}
	if r.DrawPile[0] != 30 {
		t.Errorf("Original draw pile mutated: %v", r.DrawPile)
	}
	if r.Lanes[0][0] != 40 {
		t.Errorf("Original lane mutated: %v", r.Lanes[0])
	}
}
