package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jaminalder/perfect-tic-tac-toe/internal/domain"
	"github.com/jaminalder/perfect-tic-tac-toe/internal/search"
	"github.com/jaminalder/perfect-tic-tac-toe/internal/tally"
)

// Errors exposed by the service layer.
var (
	ErrNotFound   = errors.New("game not found")
	ErrNotAPlayer = errors.New("not a player")
)

// GameState is the in-memory state tracked per game. One human seat plays
// against the engine.
type GameState struct {
	ID         string
	Game       domain.Game
	Human      string
	Engine     domain.Cell
	LastEngine *domain.Move
	Created    time.Time
	Updated    time.Time
}

// HumanSide is the side played by the human seat.
func (gs GameState) HumanSide() domain.Cell { return gs.Engine.Opponent() }

// Status is a short human readable line about the game.
func (gs GameState) Status() string {
	switch gs.Game.Outcome {
	case domain.XWins:
		return "Player X wins!"
	case domain.OWins:
		return "Player O wins!"
	case domain.Draw:
		return "It's a draw!"
	}
	return "Your move (" + gs.HumanSide().String() + ")"
}

type subscriber struct {
	mu     sync.Mutex
	ch     chan []byte
	closed bool
}

// send delivers b without blocking; false means the subscriber is too slow.
func (s *subscriber) send(b []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}
	select {
	case s.ch <- b:
		return true
	default:
		return false
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// Option configures a Service.
type Option func(*Service)

// WithEngine sets the side the engine plays and its search options.
func WithEngine(side domain.Cell, opts ...search.Option) Option {
	return func(s *Service) {
		s.engine = side
		s.searchOpts = opts
	}
}

// WithScoreboard records finished games on sb.
func WithScoreboard(sb *tally.Scoreboard) Option {
	return func(s *Service) { s.scores = sb }
}

// WithLogger sets the service logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *Service) { s.log = log }
}

// Service manages games and subscribers.
type Service struct {
	mu         sync.Mutex
	games      map[string]*GameState
	subs       map[string]map[*subscriber]struct{}
	render     func(GameState) []byte
	engine     domain.Cell
	searchOpts []search.Option
	scores     *tally.Scoreboard
	log        *zap.SugaredLogger
}

// NewService creates a service with a default renderer (encodes nothing useful).
func NewService(opts ...Option) *Service { return NewServiceWithRenderer(nil, opts...) }

// NewServiceWithRenderer allows injecting a renderer for broadcast payloads.
// Without options the engine plays O with pruning and the tally lives in memory.
func NewServiceWithRenderer(renderer func(GameState) []byte, opts ...Option) *Service {
	if renderer == nil {
		renderer = func(gs GameState) []byte { return nil }
	}
	s := &Service{
		games:      make(map[string]*GameState),
		subs:       make(map[string]map[*subscriber]struct{}),
		render:     renderer,
		engine:     domain.O,
		searchOpts: []search.Option{search.WithPruning()},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = zap.NewNop().Sugar()
	}
	if s.scores == nil {
		s.scores = tally.NewScoreboard(context.Background(), &tally.MemoryStore{}, s.log)
	}
	return s
}

// SetRenderer replaces the broadcast renderer function.
func (s *Service) SetRenderer(renderer func(GameState) []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if renderer == nil {
		s.render = func(gs GameState) []byte { return nil }
		return
	}
	s.render = renderer
}

// EngineSide is the side the engine plays in new games.
func (s *Service) EngineSide() domain.Cell { return s.engine }

// Stats returns the current win/draw tally.
func (s *Service) Stats() tally.Record { return s.scores.Snapshot() }

// CreateGame creates and registers a new game. When the engine plays X it
// makes the opening move immediately.
func (s *Service) CreateGame() (*GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	now := time.Now()
	gs := &GameState{ID: id, Game: domain.New(), Engine: s.engine, Created: now, Updated: now}
	if gs.Game.Turn == gs.Engine {
		if err := s.engineMoveLocked(gs); err != nil {
			return nil, err
		}
	}
	s.games[id] = gs
	s.log.Debugw("game created", "game", id, "engine", gs.Engine.String())
	cp := *gs
	return &cp, nil
}

// Get returns a copy of the game state if present.
func (s *Service) Get(id string) (*GameState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.games[id]
	if !ok {
		return nil, false
	}
	cp := *gs
	return &cp, true
}

// Join claims the human seat if it is free; returns the human side for the
// seated player and Empty for spectators.
func (s *Service) Join(id, playerID string) (domain.Cell, *GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.games[id]
	if !ok {
		return domain.Empty, nil, ErrNotFound
	}
	side := domain.Empty
	if gs.Human == "" || gs.Human == playerID {
		gs.Human = playerID
		side = gs.HumanSide()
	}
	gs.Updated = time.Now()
	cp := *gs
	return side, &cp, nil
}

// Play validates the seat, applies the human move, lets the engine
// reply, updates the tally when the game ends, and broadcasts.
func (s *Service) Play(id, playerID string, r, c int) (*GameState, error) {
	s.mu.Lock()
	gs, ok := s.games[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	// Validate player is seated
	if gs.Human == "" || gs.Human != playerID {
		s.mu.Unlock()
		return nil, ErrNotAPlayer
	}
	// Apply move; the engine always replies before the lock is released,
	// so an open game is always waiting on the human.
	if err := gs.Game.Play(r, c); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	gs.LastEngine = nil
	if !gs.Game.Over {
		if err := s.engineMoveLocked(gs); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}
	gs.Updated = time.Now()

	// Snapshot state and subscribers
	cp := *gs
	subs := s.copySubsLocked(id)
	render := s.render
	s.mu.Unlock()

	if cp.Game.Over {
		rec := s.scores.Record(context.Background(), cp.Game.Outcome)
		s.log.Infow("game finished", "game", id, "outcome", cp.Game.Outcome.String(),
			"x_wins", rec.XWins, "o_wins", rec.OWins, "draws", rec.Draws)
	}
	// rendered after the tally update so the payload shows the new score
	s.broadcast(id, subs, render(cp))
	return &cp, nil
}

// Reset starts a fresh board in an existing game. Only the seated player may
// reset.
func (s *Service) Reset(id, playerID string) (*GameState, error) {
	s.mu.Lock()
	gs, ok := s.games[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	if gs.Human == "" || gs.Human != playerID {
		s.mu.Unlock()
		return nil, ErrNotAPlayer
	}
	gs.Game = domain.New()
	gs.LastEngine = nil
	if gs.Game.Turn == gs.Engine {
		if err := s.engineMoveLocked(gs); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}
	gs.Updated = time.Now()
	cp := *gs
	subs := s.copySubsLocked(id)
	render := s.render
	s.mu.Unlock()

	s.broadcast(id, subs, render(cp))
	return &cp, nil
}

// engineMoveLocked searches the game's own board for the engine's reply.
// The caller holds s.mu, which gives the search exclusive use of the board.
func (s *Service) engineMoveLocked(gs *GameState) error {
	sr := search.New(&gs.Game.Board, s.searchOpts...)
	start := time.Now()
	m := sr.FindBestMove(gs.Engine)
	if err := gs.Game.Play(m.Row, m.Col); err != nil {
		s.log.Errorw("engine produced an illegal move", "game", gs.ID, "row", m.Row, "col", m.Col, zap.Error(err))
		return err
	}
	gs.LastEngine = &m
	s.log.Debugw("engine moved", "game", gs.ID, "row", m.Row, "col", m.Col,
		"nodes", sr.Nodes(), "pruning", sr.Pruning(), "took", time.Since(start))
	return nil
}

// Subscribe registers a subscriber for a game. Returns a channel and an unsubscribe func.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan []byte, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[id]; !ok {
		return nil, nil, ErrNotFound
	}
	set := s.subs[id]
	if set == nil {
		set = make(map[*subscriber]struct{})
		s.subs[id] = set
	}
	sub := &subscriber{ch: make(chan []byte, 1)}
	set[sub] = struct{}{}

	unsubOnce := &sync.Once{}
	unsub := func() {
		unsubOnce.Do(func() {
			s.mu.Lock()
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
			}
			s.mu.Unlock()
			sub.close()
		})
	}
	go func() {
		<-ctx.Done()
		unsub()
	}()
	return sub.ch, unsub, nil
}

// broadcast fans payload out; slow subscribers are closed and dropped.
func (s *Service) broadcast(id string, subs map[*subscriber]struct{}, payload []byte) {
	var toDrop []*subscriber
	for sub := range subs {
		if !sub.send(payload) {
			sub.close()
			toDrop = append(toDrop, sub)
		}
	}
	if len(toDrop) > 0 {
		s.mu.Lock()
		for _, sub := range toDrop {
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
			}
		}
		s.mu.Unlock()
	}
}

func (s *Service) copySubsLocked(id string) map[*subscriber]struct{} {
	out := make(map[*subscriber]struct{})
	if set, ok := s.subs[id]; ok {
		for k := range set {
			out[k] = struct{}{}
		}
	}
	return out
}
