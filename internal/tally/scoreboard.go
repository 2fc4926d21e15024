package tally

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/jaminalder/perfect-tic-tac-toe/internal/domain"
)

// Scoreboard holds the live tally and writes it back to a Store after every
// finished game. Store failures are logged and never returned.
type Scoreboard struct {
	mu    sync.Mutex
	rec   Record
	store Store
	log   *zap.SugaredLogger
}

// NewScoreboard loads the tally from store. A missing or unreadable record
// starts from zero.
func NewScoreboard(ctx context.Context, store Store, log *zap.SugaredLogger) *Scoreboard {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if store == nil {
		store = &MemoryStore{}
	}
	sb := &Scoreboard{store: store, log: log}
	rec, err := store.Load(ctx)
	switch {
	case err == nil:
		sb.rec = rec
	case errors.Is(err, ErrNoRecord):
		log.Infow("no saved tally, starting from zero")
	default:
		log.Warnw("failed to load tally, starting from zero", zap.Error(err))
	}
	return sb
}

// Snapshot returns the current tally.
func (sb *Scoreboard) Snapshot() Record {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.rec
}

// Record counts a finished game and persists the new tally.
func (sb *Scoreboard) Record(ctx context.Context, o domain.Outcome) Record {
	if !o.Terminal() {
		return sb.Snapshot()
	}
	sb.mu.Lock()
	sb.rec.Add(o)
	rec := sb.rec
	// saves are serialized so an older tally never overwrites a newer one
	err := sb.store.Save(ctx, rec)
	sb.mu.Unlock()

	if err != nil {
		sb.log.Warnw("failed to save tally", zap.Error(err), zap.String("outcome", o.String()))
	}
	return rec
}
