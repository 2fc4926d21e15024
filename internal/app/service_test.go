package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jaminalder/perfect-tic-tac-toe/internal/domain"
	"github.com/jaminalder/perfect-tic-tac-toe/internal/search"
	"github.com/jaminalder/perfect-tic-tac-toe/internal/tally"
)

// minimal renderer for tests: encode moves count as bytes
func testRenderer(gs GameState) []byte { return []byte(fmt.Sprintf("moves=%d", gs.Game.Moves)) }

// firstEmpty returns the first empty cell in row-major order.
func firstEmpty(t *testing.T, gs *GameState) domain.Move {
	t.Helper()
	cells := gs.Game.Board.EmptyCells()
	if len(cells) == 0 {
		t.Fatalf("no empty cell left")
	}
	return cells[0]
}

func TestCreateAndGet(t *testing.T) {
	s := NewServiceWithRenderer(testRenderer)
	gs, err := s.CreateGame()
	if err != nil {
		t.Fatalf("CreateGame error: %v", err)
	}
	if gs.ID == "" {
		t.Fatalf("expected non-empty game ID")
	}
	if gs.Game.Turn != domain.X || gs.Engine != domain.O {
		t.Fatalf("expected human X to move first against engine O")
	}
	if gs.Created.IsZero() || gs.Updated.IsZero() {
		t.Fatalf("expected timestamps to be set")
	}
	got, ok := s.Get(gs.ID)
	if !ok || got.ID != gs.ID {
		t.Fatalf("Get should find created game")
	}
}

func TestEngineAsXOpens(t *testing.T) {
	s := NewServiceWithRenderer(testRenderer, WithEngine(domain.X, search.WithPruning()))
	gs, err := s.CreateGame()
	if err != nil {
		t.Fatalf("CreateGame error: %v", err)
	}
	if gs.Game.Moves != 1 || gs.Game.Turn != domain.O || gs.LastEngine == nil {
		t.Fatalf("expected engine opening move; moves=%d turn=%v", gs.Game.Moves, gs.Game.Turn)
	}
	if *gs.LastEngine != (domain.Move{Row: 0, Col: 0}) {
		t.Fatalf("expected opening at (0,0), got %v", *gs.LastEngine)
	}
	if side, _, _ := s.Join(gs.ID, "p1"); side != domain.O {
		t.Fatalf("human should play O, got %v", side)
	}
}

func TestJoinSeatsAndRejoin(t *testing.T) {
	s := NewServiceWithRenderer(testRenderer)
	gs, _ := s.CreateGame()
	p1, p2 := "p1", "p2"

	side, _, err := s.Join(gs.ID, p1)
	if err != nil || side != domain.X {
		t.Fatalf("p1 should claim X, got %v, err=%v", side, err)
	}
	side, _, err = s.Join(gs.ID, p1)
	if err != nil || side != domain.X {
		t.Fatalf("p1 rejoin should keep X, got %v, err=%v", side, err)
	}
	side, _, err = s.Join(gs.ID, p2)
	if err != nil || side != domain.Empty {
		t.Fatalf("p2 should spectate (Empty), got %v, err=%v", side, err)
	}
	if _, _, err := s.Join("missing", p1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPlayEngineRepliesAndSpectatorBlocked(t *testing.T) {
	s := NewServiceWithRenderer(testRenderer)
	gs, _ := s.CreateGame()
	s.Join(gs.ID, "p1") // X
	s.Join(gs.ID, "p2") // spectator

	if _, err := s.Play(gs.ID, "p2", 0, 0); !errors.Is(err, ErrNotAPlayer) {
		t.Fatalf("expected ErrNotAPlayer, got %v", err)
	}
	st, err := s.Play(gs.ID, "p1", 0, 0)
	if err != nil {
		t.Fatalf("X play failed: %v", err)
	}
	if st.Game.Board.At(0, 0) != domain.X || st.Game.Turn != domain.X || st.Game.Moves != 2 {
		t.Fatalf("unexpected state after X move: turn=%v moves=%d\n%s", st.Game.Turn, st.Game.Moves, st.Game.Board.String())
	}
	// the only drawing reply to a corner opening is the centre
	if st.LastEngine == nil || *st.LastEngine != (domain.Move{Row: 1, Col: 1}) {
		t.Fatalf("expected engine reply (1,1), got %v", st.LastEngine)
	}
	if _, err := s.Play(gs.ID, "p1", 1, 1); !errors.Is(err, domain.ErrOccupied) {
		t.Fatalf("expected ErrOccupied, got %v", err)
	}
	if _, err := s.Play(gs.ID, "p1", 3, 0); !errors.Is(err, domain.ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
}

func TestEngineWinsAndTallyRecords(t *testing.T) {
	store := &tally.MemoryStore{}
	sb := tally.NewScoreboard(context.Background(), store, nil)
	s := NewServiceWithRenderer(testRenderer, WithScoreboard(sb))
	gs, _ := s.CreateGame()
	s.Join(gs.ID, "p1")

	st := gs
	for !st.Game.Over {
		m := firstEmpty(t, st)
		var err error
		if st, err = s.Play(gs.ID, "p1", m.Row, m.Col); err != nil {
			t.Fatalf("play %v: %v", m, err)
		}
	}
	if st.Game.Outcome != domain.OWins || st.Game.Moves != 6 {
		t.Fatalf("expected engine O to win in 6 moves, got %v after %d\n%s", st.Game.Outcome, st.Game.Moves, st.Game.Board.String())
	}
	if st.Status() != "Player O wins!" {
		t.Fatalf("unexpected status %q", st.Status())
	}
	if got := s.Stats(); got != (tally.Record{OWins: 1}) {
		t.Fatalf("unexpected tally %+v", got)
	}
	if saved, err := store.Load(context.Background()); err != nil || saved != (tally.Record{OWins: 1}) {
		t.Fatalf("tally not persisted: %+v, %v", saved, err)
	}
	if _, err := s.Play(gs.ID, "p1", 2, 2); !errors.Is(err, domain.ErrGameOver) {
		t.Fatalf("expected ErrGameOver, got %v", err)
	}
	if got := s.Stats(); got.Games() != 1 {
		t.Fatalf("rejected move must not be counted, got %+v", got)
	}
}

func TestEngineNeverLoses(t *testing.T) {
	// try every first move for the human, then keep playing first-empty
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			s := NewService()
			gs, _ := s.CreateGame()
			s.Join(gs.ID, "p1")
			st, err := s.Play(gs.ID, "p1", r, c)
			if err != nil {
				t.Fatalf("open %d,%d: %v", r, c, err)
			}
			for !st.Game.Over {
				m := firstEmpty(t, st)
				if st, err = s.Play(gs.ID, "p1", m.Row, m.Col); err != nil {
					t.Fatalf("play %v: %v", m, err)
				}
			}
			if st.Game.Outcome == domain.XWins {
				t.Fatalf("engine lost after opening %d,%d:\n%s", r, c, st.Game.Board.String())
			}
		}
	}
}

func TestReset(t *testing.T) {
	s := NewServiceWithRenderer(testRenderer)
	gs, _ := s.CreateGame()
	s.Join(gs.ID, "p1")
	if _, err := s.Play(gs.ID, "p1", 0, 0); err != nil {
		t.Fatalf("play: %v", err)
	}
	if _, err := s.Reset(gs.ID, "p2"); !errors.Is(err, ErrNotAPlayer) {
		t.Fatalf("expected ErrNotAPlayer, got %v", err)
	}
	st, err := s.Reset(gs.ID, "p1")
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if st.Game.Moves != 0 || st.Game.Over || st.LastEngine != nil || st.Human != "p1" {
		t.Fatalf("expected fresh board with seat kept, got moves=%d", st.Game.Moves)
	}
}

func TestSubscribeAndBroadcast(t *testing.T) {
	s := NewServiceWithRenderer(testRenderer)
	gs, _ := s.CreateGame()
	s.Join(gs.ID, "p1")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
	defer cancel()
	ch, unsub, err := s.Subscribe(ctx, gs.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer unsub()

	// Trigger an update: X plays, engine answers
	if _, err := s.Play(gs.ID, "p1", 0, 0); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	select {
	case b, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed unexpectedly")
		}
		if string(b) != "moves=2" {
			t.Fatalf("unexpected broadcast payload: %q", string(b))
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for broadcast")
	}
}

func TestSubscribeUnknownGame(t *testing.T) {
	s := NewService()
	if _, _, err := s.Subscribe(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDropSlowSubscriber(t *testing.T) {
	s := NewServiceWithRenderer(testRenderer)
	gs, _ := s.CreateGame()
	s.Join(gs.ID, "p1")

	// Slow subscriber: never read
	ctxSlow, cancelSlow := context.WithCancel(context.Background())
	defer cancelSlow()
	slowCh, _, _ := s.Subscribe(ctxSlow, gs.ID)

	// Fast subscriber: will read
	ctxFast, cancelFast := context.WithTimeout(context.Background(), time.Second*2)
	defer cancelFast()
	fastCh, unsubFast, _ := s.Subscribe(ctxFast, gs.ID)
	defer unsubFast()

	// Two updates; slow should be dropped to avoid blocking fast
	st, err := s.Play(gs.ID, "p1", 0, 0)
	if err != nil {
		t.Fatalf("play1: %v", err)
	}
	<-fastCh
	m := firstEmpty(t, st)
	if _, err := s.Play(gs.ID, "p1", m.Row, m.Col); err != nil {
		t.Fatalf("play2: %v", err)
	}
	select {
	case <-fastCh:
	case <-ctxFast.Done():
		t.Fatalf("fast subscriber did not receive updates in time")
	}

	// Slow subscriber got the first payload, then was closed
	if _, ok := <-slowCh; !ok {
		t.Fatalf("expected buffered first payload")
	}
	select {
	case _, ok := <-slowCh:
		if ok {
			t.Fatalf("expected slow subscriber to be closed")
		}
	case <-time.After(time.Second):
		t.Fatalf("slow subscriber channel not closed")
	}
}
