package tally

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore keeps the record as a JSON document on disk.
type FileStore struct {
	Path string
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore { return &FileStore{Path: path} }

func (f *FileStore) Load(ctx context.Context) (Record, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Record{}, ErrNoRecord
		}
		return Record{}, fmt.Errorf("read tally %s: %w", f.Path, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("decode tally %s: %w", f.Path, err)
	}
	return rec, nil
}

// Save writes to a temporary file in the same directory and renames it over
// the target, so readers never see a half-written record.
func (f *FileStore) Save(ctx context.Context, rec Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tally: %w", err)
	}
	dir := filepath.Dir(f.Path)
	tmp, err := os.CreateTemp(dir, ".tally-*.json")
	if err != nil {
		return fmt.Errorf("create temp tally in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write tally: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close tally: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("replace tally %s: %w", f.Path, err)
	}
	return nil
}
