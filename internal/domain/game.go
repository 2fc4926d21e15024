package domain

import "errors"

// Game holds the current state of a Tic-Tac-Toe match.
type Game struct {
	Board   Board
	Turn    Cell
	Winner  Cell
	Over    bool
	Moves   int
	Outcome Outcome
}

// Errors returned by domain operations.
var (
	ErrOutOfBounds = errors.New("out of bounds")
	ErrOccupied    = errors.New("cell occupied")
	ErrGameOver    = errors.New("game over")
)

// New returns a new game with X to move.
func New() Game {
	return Game{Turn: X}
}

// Play attempts to play the current turn at row r, column c (0..2).
func (g *Game) Play(r, c int) error {
	if g.Over {
		return ErrGameOver
	}
	if !g.Board.ApplyMove(r, c, g.Turn) {
		if !(Move{r, c}).InBounds() {
			return ErrOutOfBounds
		}
		return ErrOccupied
	}
	g.Moves++

	g.Outcome = g.Board.Outcome()
	switch g.Outcome {
	case XWins, OWins:
		g.Winner = g.Turn
		g.Over = true
		return nil
	case Draw:
		g.Winner = Empty
		g.Over = true
		return nil
	}

	g.Turn = g.Turn.Opponent()
	return nil
}
