package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"rankboard/adapters/memory"
	"rankboard/core"
)

// Store persists the entire ordered-set state to a single JSON file after
// every write. Suitable for demos and small deployments.
type Store struct {
	path string
	mu   sync.Mutex
	mem  *memory.Store
}

func New(path string) (*Store, error) {
	s := &Store{path: path, mem: memory.New()}
	if err := s.load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	return s, nil
}

func (s *Store) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var snap memory.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return err
	}
	s.mem.Restore(snap)
	return nil
}

// persist writes to a temp file and renames it over the target.
func (s *Store) persist() error {
	b, err := json.MarshalIndent(s.mem.Snapshot(), "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// write applies fn to the in-memory state and persists the result. If the
// file cannot be written the in-memory state is rolled back, so memory never
// holds a change the file does not.
func (s *Store) write(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.mem.Snapshot()
	if err := fn(); err != nil {
		s.mem.Restore(prev)
		return err
	}
	if err := s.persist(); err != nil {
		s.mem.Restore(prev)
		return err
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	return s.mem.Exists(ctx, key)
}

func (s *Store) UpsertScore(ctx context.Context, key string, score int64, member string) error {
	return s.write(func() error { return s.mem.UpsertScore(ctx, key, score, member) })
}

func (s *Store) RangeByScore(ctx context.Context, key string, min, max int64) ([]string, error) {
	return s.mem.RangeByScore(ctx, key, min, max)
}

func (s *Store) RangeByScoreWithScores(ctx context.Context, key string, min, max int64) ([]core.Entry, error) {
	return s.mem.RangeByScoreWithScores(ctx, key, min, max)
}

func (s *Store) Remove(ctx context.Context, key string, member string) error {
	return s.write(func() error { return s.mem.Remove(ctx, key, member) })
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.write(func() error { return s.mem.Delete(ctx, key) })
}

func (s *Store) MemberAdd(ctx context.Context, key string, member string) error {
	return s.write(func() error { return s.mem.MemberAdd(ctx, key, member) })
}

func (s *Store) MemberRemove(ctx context.Context, key string, member string) error {
	return s.write(func() error { return s.mem.MemberRemove(ctx, key, member) })
}

func (s *Store) Members(ctx context.Context, key string) ([]string, error) {
	return s.mem.Members(ctx, key)
}

// ReplaceScores lands as a single file rewrite.
func (s *Store) ReplaceScores(ctx context.Context, key string, entries []core.Entry) error {
	return s.write(func() error { return s.mem.ReplaceScores(ctx, key, entries) })
}

// Close flushes the current state one last time.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist()
}
