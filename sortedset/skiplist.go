package sortedset

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"

	"rankboard/core"
)

// A skip list keyed by (score asc, member asc) giving O(log n) upserts.

const maxLevel = 16
const pFactor = 0.25

type node struct {
	e    core.Entry
	next [maxLevel]*node
}

type SkipList struct {
	mu       sync.RWMutex
	head     *node
	lvl      int
	byMember map[string]*node
	rng      *rand.Rand
}

func NewSkipList() *SkipList {
	var seed [16]byte
	if _, err := cryptorand.Read(seed[:]); err != nil {
		seed = [16]byte{}
	}
	return &SkipList{
		head:     &node{},
		lvl:      1,
		byMember: map[string]*node{},
		rng:      rand.New(rand.NewPCG(binary.BigEndian.Uint64(seed[:8]), binary.BigEndian.Uint64(seed[8:]))),
	}
}

func (s *SkipList) randomLevel() int {
	lvl := 1
	for lvl < maxLevel && s.rng.Float64() < pFactor {
		lvl++
	}
	return lvl
}

// less orders by ascending score; equal scores fall back to member order,
// matching Redis sorted set semantics.
func less(a, b core.Entry) bool {
	if a.Score == b.Score {
		return a.Member < b.Member
	}
	return a.Score < b.Score
}

// Upsert inserts member or moves it to the new score.
func (s *SkipList) Upsert(member string, score int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.byMember[member]; ok {
		if old.e.Score == score {
			return
		}
		s.removeLocked(old.e)
	}
	e := core.Entry{Member: member, Score: score}
	update := [maxLevel]*node{}
	cur := s.head
	for i := s.lvl - 1; i >= 0; i-- {
		for cur.next[i] != nil && less(cur.next[i].e, e) {
			cur = cur.next[i]
		}
		update[i] = cur
	}
	lvl := s.randomLevel()
	if lvl > s.lvl {
		for i := s.lvl; i < lvl; i++ {
			update[i] = s.head
		}
		s.lvl = lvl
	}
	n := &node{e: e}
	for i := 0; i < lvl; i++ {
		n.next[i] = update[i].next[i]
		update[i].next[i] = n
	}
	s.byMember[member] = n
}

func (s *SkipList) removeLocked(e core.Entry) {
	update := [maxLevel]*node{}
	cur := s.head
	for i := s.lvl - 1; i >= 0; i-- {
		for cur.next[i] != nil && less(cur.next[i].e, e) {
			cur = cur.next[i]
		}
		update[i] = cur
	}
	target := update[0].next[0]
	if target == nil || target.e.Member != e.Member {
		return
	}
	for i := 0; i < s.lvl; i++ {
		if update[i].next[i] == target {
			update[i].next[i] = target.next[i]
		}
	}
	delete(s.byMember, e.Member)
	for s.lvl > 1 && s.head.next[s.lvl-1] == nil {
		s.lvl--
	}
}

// Remove deletes member and reports whether it was present.
func (s *SkipList) Remove(member string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.byMember[member]
	if !ok {
		return false
	}
	s.removeLocked(n.e)
	return true
}

func (s *SkipList) Score(member string) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n, ok := s.byMember[member]; ok {
		return n.e.Score, true
	}
	return 0, false
}

func (s *SkipList) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byMember)
}

// RangeByScore returns entries with min <= score <= max in ascending order.
func (s *SkipList) RangeByScore(min, max int64) []core.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if min > max {
		return nil
	}
	cur := s.head
	for i := s.lvl - 1; i >= 0; i-- {
		for cur.next[i] != nil && cur.next[i].e.Score < min {
			cur = cur.next[i]
		}
	}
	var out []core.Entry
	for n := cur.next[0]; n != nil && n.e.Score <= max; n = n.next[0] {
		out = append(out, n.e)
	}
	return out
}
