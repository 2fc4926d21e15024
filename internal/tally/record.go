// Package tally keeps the process-wide win/draw counters and persists them
// after every finished game.
package tally

import (
	"context"
	"errors"

	"github.com/jaminalder/perfect-tic-tac-toe/internal/domain"
)

// Record is the persisted tally.
type Record struct {
	XWins int `json:"playerXWins" bson:"playerXWins" redis:"playerXWins"`
	OWins int `json:"playerOWins" bson:"playerOWins" redis:"playerOWins"`
	Draws int `json:"draws" bson:"draws" redis:"draws"`
}

// Add counts one finished game. InProgress is ignored.
func (r *Record) Add(o domain.Outcome) {
	switch o {
	case domain.XWins:
		r.XWins++
	case domain.OWins:
		r.OWins++
	case domain.Draw:
		r.Draws++
	}
}

// Games returns the number of finished games.
func (r Record) Games() int { return r.XWins + r.OWins + r.Draws }

// ErrNoRecord is returned by stores that hold no tally yet.
var ErrNoRecord = errors.New("no tally record")

// Store loads and saves a Record.
type Store interface {
	Load(ctx context.Context) (Record, error)
	Save(ctx context.Context, rec Record) error
}
