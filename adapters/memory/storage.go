package memory

import (
	"context"
	"sort"
	"sync"

	"rankboard/core"
	"rankboard/sortedset"
)

// Store is a concurrent in-memory ordered-set store. Ordered sets live in skip
// lists; plain sets back the board registry.
type Store struct {
	mu    sync.RWMutex
	zsets map[string]sortedset.Set
	sets  map[string]map[string]struct{}
}

// Snapshot is a point-in-time copy of the store contents.
type Snapshot struct {
	SortedSets map[string][]core.Entry `json:"sorted_sets"`
	Sets       map[string][]string     `json:"sets"`
}

func New() *Store {
	return &Store{
		zsets: map[string]sortedset.Set{},
		sets:  map[string]map[string]struct{}{},
	}
}

// Exists reports whether key holds a non-empty ordered set or set.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if z, ok := s.zsets[key]; ok && z.Len() > 0 {
		return true, nil
	}
	return len(s.sets[key]) > 0, nil
}

func (s *Store) UpsertScore(_ context.Context, key string, score int64, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zsetLocked(key).Upsert(member, score)
	return nil
}

func (s *Store) RangeByScore(ctx context.Context, key string, min, max int64) ([]string, error) {
	entries, err := s.RangeByScoreWithScores(ctx, key, min, max)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Member
	}
	return out, nil
}

func (s *Store) RangeByScoreWithScores(_ context.Context, key string, min, max int64) ([]core.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	z, ok := s.zsets[key]
	if !ok {
		return nil, nil
	}
	return z.RangeByScore(min, max), nil
}

// Remove drops member; an ordered set left empty disappears like a Redis key.
func (s *Store) Remove(_ context.Context, key string, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	z, ok := s.zsets[key]
	if !ok {
		return nil
	}
	if z.Remove(member) && z.Len() == 0 {
		delete(s.zsets, key)
	}
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.zsets, key)
	delete(s.sets, key)
	return nil
}

func (s *Store) MemberAdd(_ context.Context, key string, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.sets[key]
	if set == nil {
		set = map[string]struct{}{}
		s.sets[key] = set
	}
	set[member] = struct{}{}
	return nil
}

func (s *Store) MemberRemove(_ context.Context, key string, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.sets[key]
	delete(set, member)
	if len(set) == 0 {
		delete(s.sets, key)
	}
	return nil
}

func (s *Store) Members(_ context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.sets[key]))
	for m := range s.sets[key] {
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

// ReplaceScores applies all entries inside one critical section. Entries
// whose score is unchanged are not relinked.
func (s *Store) ReplaceScores(_ context.Context, key string, entries []core.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	z := s.zsetLocked(key)
	for _, e := range entries {
		if cur, ok := z.Score(e.Member); ok && cur == e.Score {
			continue
		}
		z.Upsert(e.Member, e.Score)
	}
	return nil
}

// Close is a no-op; the store lives as long as the process.
func (s *Store) Close() error { return nil }

// Snapshot copies the full store contents.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		SortedSets: make(map[string][]core.Entry, len(s.zsets)),
		Sets:       make(map[string][]string, len(s.sets)),
	}
	for k, z := range s.zsets {
		snap.SortedSets[k] = z.RangeByScore(core.MinScore, core.MaxScore)
	}
	for k, set := range s.sets {
		members := make([]string, 0, len(set))
		for m := range set {
			members = append(members, m)
		}
		sort.Strings(members)
		snap.Sets[k] = members
	}
	return snap
}

// Restore replaces the store contents with snap.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zsets = make(map[string]sortedset.Set, len(snap.SortedSets))
	s.sets = make(map[string]map[string]struct{}, len(snap.Sets))
	for k, entries := range snap.SortedSets {
		if len(entries) == 0 {
			continue
		}
		z := s.zsetLocked(k)
		for _, e := range entries {
			z.Upsert(e.Member, e.Score)
		}
	}
	for k, members := range snap.Sets {
		if len(members) == 0 {
			continue
		}
		set := make(map[string]struct{}, len(members))
		for _, m := range members {
			set[m] = struct{}{}
		}
		s.sets[k] = set
	}
}

func (s *Store) zsetLocked(key string) sortedset.Set {
	z, ok := s.zsets[key]
	if !ok {
		z = sortedset.NewSkipList()
		s.zsets[key] = z
	}
	return z
}

var _ interface {
	Exists(context.Context, string) (bool, error)
	UpsertScore(context.Context, string, int64, string) error
	RangeByScore(context.Context, string, int64, int64) ([]string, error)
	RangeByScoreWithScores(context.Context, string, int64, int64) ([]core.Entry, error)
	Remove(context.Context, string, string) error
	Delete(context.Context, string) error
	MemberAdd(context.Context, string, string) error
	MemberRemove(context.Context, string, string) error
	Members(context.Context, string) ([]string, error)
	ReplaceScores(context.Context, string, []core.Entry) error
	Close() error
} = (*Store)(nil)
