package room

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/sh1zukey/TheGameOnline-BE/internal/deck"
	"github.com/sh1zukey/TheGameOnline-BE/internal/game"
	"github.com/sh1zukey/TheGameOnline-BE/internal/model"
	"github.com/sh1zukey/TheGameOnline-BE/internal/store"
)

func newTestRegistry(opts Options) (*Registry, *store.MemoryStore) {
	s := store.NewMemoryStore()
	deckService := deck.NewService(rand.New(rand.NewSource(7)))
	engine := game.NewEngine(deckService, 9)
	return NewRegistry(s, engine, deckService, opts), s
}

func intPtr(n int) *int {
	return &n
}

func TestJoin_CreatesRoom(t *testing.T) {
	r, s := newTestRegistry(Options{DeckSize: 98, HandSize: 6})
	ctx := context.Background()

	outcome, err := r.Join(ctx, "room-1", "p1", "Alice", intPtr(2))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if outcome.Started {
		t.Error("First join should not start the game")
	}
	rm := outcome.Room
	if rm.Phase != model.PhaseReady {
		t.Errorf("Expected phase ready, got %s", rm.Phase)
	}
	if rm.Capacity != 2 {
		t.Errorf("Expected capacity 2, got %d", rm.Capacity)
	}
	if len(rm.DrawPile) != 98 {
		t.Errorf("Expected 98 cards in draw pile, got %d", len(rm.DrawPile))
	}
	if rm.TurnIndex != -1 {
		t.Errorf("Expected turn index -1 before start, got %d", rm.TurnIndex)
	}
	if rm.MinPlays != 2 {
		t.Errorf("Expected min plays 2, got %d", rm.MinPlays)
	}

	exists, err := s.Exists(ctx, "room-1")
	if err != nil || !exists {
		t.Errorf("Room should be persisted, exists=%v err=%v", exists, err)
	}
}

func TestJoin_CapacityRequired(t *testing.T) {
	r, s := newTestRegistry(Options{DeckSize: 98, HandSize: 6})
	ctx := context.Background()

	_, err := r.Join(ctx, "room-1", "p1", "Alice", nil)
	if !errors.Is(err, ErrCapacityRequired) {
		t.Fatalf("Expected ErrCapacityRequired, got %v", err)
	}

	// 拒绝时不落任何状态
	exists, _ := s.Exists(ctx, "room-1")
	if exists {
		t.Error("Rejected create should not persist a room")
	}
}

func TestJoin_InvalidCapacity(t *testing.T) {
	r, _ := newTestRegistry(Options{DeckSize: 98, HandSize: 6})
	ctx := context.Background()

	if _, err := r.Join(ctx, "room-1", "p1", "Alice", intPtr(1)); !errors.Is(err, ErrInvalidCapacity) {
		t.Errorf("Expected ErrInvalidCapacity for capacity 1, got %v", err)
	}
	if _, err := r.Join(ctx, "room-1", "p1", "Alice", intPtr(0)); !errors.Is(err, ErrInvalidCapacity) {
		t.Errorf("Expected ErrInvalidCapacity for capacity 0, got %v", err)
	}
}

func TestJoin_StartsAtCapacity(t *testing.T) {
	r, _ := newTestRegistry(Options{DeckSize: 98, HandSize: 6})
	ctx := context.Background()

	if _, err := r.Join(ctx, "room-1", "p1", "Alice", intPtr(3)); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	mid, err := r.Join(ctx, "room-1", "p2", "Bob", nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if mid.Started {
		t.Error("Second of three joins should not start the game")
	}

	outcome, err := r.Join(ctx, "room-1", "p3", "Carol", nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !outcome.Started {
		t.Fatal("Third join should trigger the start")
	}

	rm := outcome.Room
	if rm.Phase != model.PhaseInProgress {
		t.Errorf("Expected phase in_progress, got %s", rm.Phase)
	}
	if rm.TurnIndex != 0 {
		t.Errorf("Expected turn index 0, got %d", rm.TurnIndex)
	}
	for i, p := range rm.Players {
		if len(p.Hand) != 6 {
			t.Errorf("Player %d expected 6 cards, got %d", i, len(p.Hand))
		}
	}
	if len(rm.DrawPile) != 98-3*6 {
		t.Errorf("Expected 80 cards left, got %d", len(rm.DrawPile))
	}
}

func TestJoin_SmallDeckStartsWithMinPlaysOne(t *testing.T) {
	// 10 张牌、2 人、手牌 5：发完牌堆即空，最少出牌数开局就是 1
	r, _ := newTestRegistry(Options{DeckSize: 10, HandSize: 5})
	ctx := context.Background()

	if _, err := r.Join(ctx, "room-1", "p1", "Alice", intPtr(2)); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	outcome, err := r.Join(ctx, "room-1", "p2", "Bob", nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !outcome.Started {
		t.Fatal("Second join should start the game")
	}
	if len(outcome.Room.DrawPile) != 0 {
		t.Fatalf("Expected empty draw pile, got %d cards", len(outcome.Room.DrawPile))
	}
	if outcome.Room.MinPlays != 1 {
		t.Errorf("Expected min plays 1, got %d", outcome.Room.MinPlays)
	}
}

func TestJoin_RejectsWhenStarted(t *testing.T) {
	r, _ := newTestRegistry(Options{DeckSize: 98, HandSize: 6})
	ctx := context.Background()

	r.Join(ctx, "room-1", "p1", "Alice", intPtr(2))
	r.Join(ctx, "room-1", "p2", "Bob", nil)

	_, err := r.Join(ctx, "room-1", "p3", "Carol", nil)
	if !errors.Is(err, ErrGameStarted) {
		t.Fatalf("Expected ErrGameStarted, got %v", err)
	}

	// 房间本身不受影响
	rm, err := r.Get(ctx, "room-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(rm.Players) != 2 {
		t.Errorf("Expected 2 players, got %d", len(rm.Players))
	}
}

func TestJoin_RejectsDuplicatePlayer(t *testing.T) {
	r, _ := newTestRegistry(Options{DeckSize: 98, HandSize: 6})
	ctx := context.Background()

	r.Join(ctx, "room-1", "p1", "Alice", intPtr(3))

	if _, err := r.Join(ctx, "room-1", "p1", "Alice", nil); !errors.Is(err, ErrAlreadyInRoom) {
		t.Errorf("Expected ErrAlreadyInRoom, got %v", err)
	}
}

func TestPlay_WritesBack(t *testing.T) {
	r, s := newTestRegistry(Options{DeckSize: 98, HandSize: 6})
	ctx := context.Background()

	r.Join(ctx, "room-1", "p1", "Alice", intPtr(2))
	outcome, _ := r.Join(ctx, "room-1", "p2", "Bob", nil)

	card := outcome.Room.Players[0].Hand[0]
	rm, result, err := r.Play(ctx, "room-1", "p1", card, model.LaneAsc1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Transition != game.TransitionUpdate {
		t.Errorf("Expected TransitionUpdate, got %v", result.Transition)
	}
	if top, _ := rm.LaneTop(model.LaneAsc1); top != card {
		t.Errorf("Expected lane top %d, got %d", card, top)
	}

	// 变更已持久化
	persisted, err := s.Get(ctx, "room-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if top, _ := persisted.LaneTop(model.LaneAsc1); top != card {
		t.Errorf("Persisted lane top %d, expected %d", top, card)
	}
}

func TestPlay_ProtocolViolationWritesNothing(t *testing.T) {
	r, s := newTestRegistry(Options{DeckSize: 98, HandSize: 6})
	ctx := context.Background()

	r.Join(ctx, "room-1", "p1", "Alice", intPtr(2))
	r.Join(ctx, "room-1", "p2", "Bob", nil)

	before, _ := s.Get(ctx, "room-1")

	_, _, err := r.Play(ctx, "room-1", "p2", before.Players[1].Hand[0], model.LaneAsc1)
	if !errors.Is(err, game.ErrNotYourTurn) {
		t.Fatalf("Expected ErrNotYourTurn, got %v", err)
	}

	after, _ := s.Get(ctx, "room-1")
	if after.UpdatedAt != before.UpdatedAt {
		t.Error("Rejected mutation should not touch the persisted room")
	}
}

func TestPlay_RoomNotFound(t *testing.T) {
	r, _ := newTestRegistry(Options{DeckSize: 98, HandSize: 6})

	_, _, err := r.Play(context.Background(), "missing", "p1", 50, model.LaneAsc1)
	if !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("Expected ErrRoomNotFound, got %v", err)
	}
}

func TestMutate_EvictsEndedRoom(t *testing.T) {
	r, s := newTestRegistry(Options{DeckSize: 98, HandSize: 6})
	ctx := context.Background()

	// 手工构造一个一出牌就终结的房间
	rm := &model.Room{
		RoomID:    "room-1",
		Capacity:  2,
		Players:   []model.Player{{ID: "p1", Hand: []int{55}}, {ID: "p2", Hand: []int{56}}},
		DrawPile:  []int{},
		Lanes:     [][]int{{10}, {12}, {90}, {88}},
		TurnIndex: 0,
		MinPlays:  1,
		Phase:     model.PhaseNearEnd,
		DeckSize:  98,
	}
	if err := s.Set(ctx, rm); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	ended, result, err := r.Play(ctx, "room-1", "p1", 55, model.LaneDesc1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Transition != game.TransitionEnded {
		t.Fatalf("Expected TransitionEnded, got %v", result.Transition)
	}
	if result.EndCause != model.EndNearEndForcedStop {
		t.Errorf("Expected near_end_forced_stop, got %s", result.EndCause)
	}
	if ended.Phase != model.PhaseEnded {
		t.Errorf("Expected phase ended, got %s", ended.Phase)
	}

	// 终态已驱逐
	exists, _ := s.Exists(ctx, "room-1")
	if exists {
		t.Error("Ended room should be evicted from the store")
	}
}

func TestEndTurn_AdvancesTurn(t *testing.T) {
	r, _ := newTestRegistry(Options{DeckSize: 98, HandSize: 6})
	ctx := context.Background()

	r.Join(ctx, "room-1", "p1", "Alice", intPtr(2))
	outcome, _ := r.Join(ctx, "room-1", "p2", "Bob", nil)

	// 先出满最少出牌数（开局牌道全空，任何牌都合法）
	hand := outcome.Room.Players[0].Hand
	if _, _, err := r.Play(ctx, "room-1", "p1", hand[0], model.LaneAsc1); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, _, err := r.Play(ctx, "room-1", "p1", hand[5], model.LaneAsc2); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	rm, result, err := r.EndTurn(ctx, "room-1", "p1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Transition != game.TransitionNextTurn {
		t.Errorf("Expected TransitionNextTurn, got %v", result.Transition)
	}
	if rm.TurnIndex != 1 {
		t.Errorf("Expected turn index 1, got %d", rm.TurnIndex)
	}
	if len(rm.Players[0].Hand) != 6 {
		t.Errorf("Expected hand replenished to 6, got %d", len(rm.Players[0].Hand))
	}
}

func TestTeardown(t *testing.T) {
	r, s := newTestRegistry(Options{DeckSize: 98, HandSize: 6})
	ctx := context.Background()

	r.Join(ctx, "room-1", "p1", "Alice", intPtr(2))

	if err := r.Teardown(ctx, "room-1"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	exists, _ := s.Exists(ctx, "room-1")
	if exists {
		t.Error("Room should be deleted after teardown")
	}

	// 键不存在时不报错
	if err := r.Teardown(ctx, "room-1"); err != nil {
		t.Errorf("Teardown of missing room should be a no-op, got %v", err)
	}
}

func TestJoin_RoomBusy(t *testing.T) {
	r, s := newTestRegistry(Options{DeckSize: 98, HandSize: 6})
	ctx := context.Background()

	unlock, err := s.Lock(ctx, "room-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer unlock()

	_, err = r.Join(ctx, "room-1", "p1", "Alice", intPtr(2))
	if !errors.Is(err, store.ErrRoomBusy) {
		t.Errorf("Expected ErrRoomBusy while lock is held, got %v", err)
	}
}
