// Package search picks optimal Tic-Tac-Toe moves by exhaustive minimax,
// optionally with alpha-beta pruning.
//
// X is the maximizer and O the minimizer. Every search runs to terminal
// positions; there is no depth limit and no heuristic evaluation.
package search

import (
	"math"

	"github.com/jaminalder/perfect-tic-tac-toe/internal/domain"
)

// Scores returned by Evaluate.
const (
	WinScore  = 10
	LossScore = -WinScore
	DrawScore = 0
)

// Evaluate scores a position statically: +10 if X has a line, -10 if O has
// one, 0 otherwise. Turn alternation guarantees at most one side has a line.
func Evaluate(b *domain.Board) int {
	switch {
	case b.IsWinner(domain.X):
		return WinScore
	case b.IsWinner(domain.O):
		return LossScore
	default:
		return DrawScore
	}
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithPruning enables alpha-beta cut-offs. Results are identical to the
// unpruned search; fewer nodes are visited.
func WithPruning() Option {
	return func(s *Searcher) { s.prune = true }
}

// WithFastestWin makes a win found closer to the root score higher than a
// later one, and a loss found later score higher than an earlier one.
// This changes which move is chosen among equally winning moves.
func WithFastestWin() Option {
	return func(s *Searcher) { s.fastest = true }
}

// Searcher finds best moves on a borrowed board.
//
// For the duration of FindBestMove the searcher has exclusive use of the
// board: it applies and undoes moves in place and leaves the board as it
// found it on return. Do not share a board between concurrent searches;
// give each goroutine its own Board.Clone().
type Searcher struct {
	board   *domain.Board
	prune   bool
	fastest bool
	nodes   int
}

// New returns a Searcher over b.
func New(b *domain.Board, opts ...Option) *Searcher {
	s := &Searcher{board: b}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Pruning reports whether alpha-beta pruning is enabled.
func (s *Searcher) Pruning() bool { return s.prune }

// Nodes returns the number of positions evaluated by the last search.
func (s *Searcher) Nodes() int { return s.nodes }

// FindBestMove returns the optimal move for side.
//
// The board must not be decided and must have at least one empty cell.
func (s *Searcher) FindBestMove(side domain.Cell) domain.Move {
	m, _ := s.BestMove(side)
	return m
}

// BestMove returns the optimal move for side together with its minimax
// value. Among equally good moves the first in row-major order wins.
func (s *Searcher) BestMove(side domain.Cell) (domain.Move, int) {
	s.nodes = 0
	maximizing := side == domain.X
	best := domain.Move{Row: -1, Col: -1}
	bestVal := initial(maximizing)

	for r := 0; r < domain.Size; r++ {
		for c := 0; c < domain.Size; c++ {
			if !s.board.ApplyMove(r, c, side) {
				continue
			}
			// each root child gets the full window so its value is exact
			val := s.minimax(1, !maximizing, math.MinInt, math.MaxInt)
			s.board.UndoMove(r, c)

			if (maximizing && val > bestVal) || (!maximizing && val < bestVal) {
				best = domain.Move{Row: r, Col: c}
				bestVal = val
			}
		}
	}
	return best, bestVal
}

func (s *Searcher) minimax(ply int, maximizing bool, alpha, beta int) int {
	s.nodes++
	if score, done := s.terminal(ply); done {
		return score
	}

	side := domain.O
	if maximizing {
		side = domain.X
	}
	best := initial(maximizing)
	for r := 0; r < domain.Size; r++ {
		for c := 0; c < domain.Size; c++ {
			if !s.board.ApplyMove(r, c, side) {
				continue
			}
			val := s.minimax(ply+1, !maximizing, alpha, beta)
			s.board.UndoMove(r, c)

			if maximizing {
				best = max(best, val)
				alpha = max(alpha, best)
			} else {
				best = min(best, val)
				beta = min(beta, best)
			}
			if s.prune && alpha >= beta {
				return best
			}
		}
	}
	return best
}

// terminal reports whether the position is decided or full, and its score.
func (s *Searcher) terminal(ply int) (int, bool) {
	score := Evaluate(s.board)
	if score == DrawScore && s.board.HasMovesLeft() {
		return 0, false
	}
	if s.fastest {
		switch score {
		case WinScore:
			score -= ply
		case LossScore:
			score += ply
		}
	}
	return score, true
}

func initial(maximizing bool) int {
	if maximizing {
		return math.MinInt
	}
	return math.MaxInt
}
