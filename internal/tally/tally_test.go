package tally

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jaminalder/perfect-tic-tac-toe/internal/domain"
)

func TestRecordAdd(t *testing.T) {
	var r Record
	for _, o := range []domain.Outcome{domain.XWins, domain.OWins, domain.OWins, domain.Draw, domain.InProgress} {
		r.Add(o)
	}
	if r != (Record{XWins: 1, OWins: 2, Draws: 1}) {
		t.Fatalf("unexpected record %+v", r)
	}
	if r.Games() != 4 {
		t.Fatalf("expected 4 games, got %d", r.Games())
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "gameData.json")
	fs := NewFileStore(path)

	if _, err := fs.Load(ctx); !errors.Is(err, ErrNoRecord) {
		t.Fatalf("expected ErrNoRecord for missing file, got %v", err)
	}
	want := Record{XWins: 3, OWins: 1, Draws: 7}
	if err := fs.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := fs.Load(ctx)
	if err != nil || got != want {
		t.Fatalf("load got %+v, %v; want %+v", got, err, want)
	}
}

func TestFileStoreReadsOriginalFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gameData.json")
	if err := os.WriteFile(path, []byte(`{"playerXWins":2,"playerOWins":5,"draws":9}`), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := NewFileStore(path).Load(context.Background())
	if err != nil || got != (Record{XWins: 2, OWins: 5, Draws: 9}) {
		t.Fatalf("got %+v, %v", got, err)
	}
}

func TestScoreboardFallsBackOnCorruptFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "gameData.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	sb := NewScoreboard(ctx, NewFileStore(path), nil)
	if got := sb.Snapshot(); got != (Record{}) {
		t.Fatalf("expected zeroed record, got %+v", got)
	}
	sb.Record(ctx, domain.Draw)
	got, err := NewFileStore(path).Load(ctx)
	if err != nil || got != (Record{Draws: 1}) {
		t.Fatalf("expected rewritten record, got %+v, %v", got, err)
	}
}

func TestScoreboardPersistsEveryOutcome(t *testing.T) {
	ctx := context.Background()
	store := &MemoryStore{}
	if err := store.Save(ctx, Record{XWins: 1}); err != nil {
		t.Fatal(err)
	}
	sb := NewScoreboard(ctx, store, nil)
	sb.Record(ctx, domain.OWins)
	sb.Record(ctx, domain.InProgress)
	rec := sb.Record(ctx, domain.Draw)
	if rec != (Record{XWins: 1, OWins: 1, Draws: 1}) {
		t.Fatalf("unexpected tally %+v", rec)
	}
	saved, _ := store.Load(ctx)
	if saved != rec {
		t.Fatalf("store has %+v, want %+v", saved, rec)
	}
}

func TestScoreboardSwallowsStoreErrors(t *testing.T) {
	ctx := context.Background()
	store := &MemoryStore{Err: errors.New("disk on fire")}
	sb := NewScoreboard(ctx, store, nil)
	if rec := sb.Record(ctx, domain.XWins); rec != (Record{XWins: 1}) {
		t.Fatalf("tally should still count in memory, got %+v", rec)
	}
}
