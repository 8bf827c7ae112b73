package game

import (
	"testing"

	"github.com/sh1zukey/TheGameOnline-BE/internal/model"
)

func TestIsLegalPlay_DescendingLane(t *testing.T) {
	tests := []struct {
		name string
		card int
		top  int
		want bool
	}{
		{"smaller card", 49, 50, true},
		{"much smaller card", 2, 50, true},
		{"equal card", 50, 50, false},
		{"larger card", 51, 50, false},
		{"exactly top plus ten", 60, 50, true},
		{"top plus nine", 59, 50, false},
		{"top plus eleven", 61, 50, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsLegalPlay(tt.card, tt.top, true, true)
			if got != tt.want {
				t.Errorf("IsLegalPlay(%d on desc top %d) = %v, want %v", tt.card, tt.top, got, tt.want)
			}
		})
	}
}

func TestIsLegalPlay_AscendingLane(t *testing.T) {
	tests := []struct {
		name string
		card int
		top  int
		want bool
	}{
		{"larger card", 51, 50, true},
		{"much larger card", 99, 50, true},
		{"equal card", 50, 50, false},
		{"smaller card", 49, 50, false},
		{"exactly top minus ten", 40, 50, true},
		{"top minus nine", 41, 50, false},
		{"top minus eleven", 39, 50, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsLegalPlay(tt.card, tt.top, true, false)
			if got != tt.want {
				t.Errorf("IsLegalPlay(%d on asc top %d) = %v, want %v", tt.card, tt.top, got, tt.want)
			}
		})
	}
}

func TestIsLegalPlay_EmptyLane(t *testing.T) {
	// 空牌道任何牌都合法，与方向无关
	if !IsLegalPlay(2, 0, false, true) {
		t.Error("Any card should be legal on an empty descending lane")
	}
	if !IsLegalPlay(99, 0, false, false) {
		t.Error("Any card should be legal on an empty ascending lane")
	}
}

func TestLaneLegal(t *testing.T) {
	room := &model.Room{
		Lanes: [][]int{
			{50},
			{},
			{50},
			{},
		},
	}

	if !LaneLegal(room, 60, model.LaneDesc1) {
		t.Error("60 should be legal on descending lane with top 50 (+10 rule)")
	}
	if LaneLegal(room, 51, model.LaneDesc1) {
		t.Error("51 should not be legal on descending lane with top 50")
	}
	if !LaneLegal(room, 2, model.LaneDesc2) {
		t.Error("Any card should be legal on empty lane")
	}
	if !LaneLegal(room, 40, model.LaneAsc1) {
		t.Error("40 should be legal on ascending lane with top 50 (-10 rule)")
	}
	if LaneLegal(room, 49, model.LaneAsc1) {
		t.Error("49 should not be legal on ascending lane with top 50")
	}
}

func TestHasAnyLegalPlay(t *testing.T) {
	room := &model.Room{
		Lanes: [][]int{
			{10},
			{12},
			{90},
			{88},
		},
	}

	// 55 对两条降序道（顶牌 10、12）和两条升序道（顶牌 90、88）都无路可走
	if HasAnyLegalPlay([]int{55}, room) {
		t.Error("55 should have no legal play")
	}
	// 20 可通过 +10 落在顶牌 10 的降序道
	if !HasAnyLegalPlay([]int{55, 20}, room) {
		t.Error("20 should be playable via the +10 rule")
	}
}

func TestHasAnyLegalPlay_EmptyHand(t *testing.T) {
	room := &model.Room{Lanes: [][]int{{10}, {12}, {90}, {88}}}

	if !HasAnyLegalPlay([]int{}, room) {
		t.Error("Empty hand counts as having a legal play")
	}
}
