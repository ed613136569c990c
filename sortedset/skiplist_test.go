package sortedset

import (
	"testing"

	"rankboard/core"
)

func members(entries []core.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Member)
	}
	return out
}

func TestSkipListOrdering(t *testing.T) {
	s := NewSkipList()
	s.Upsert("a", 10)
	s.Upsert("b", 20)
	s.Upsert("c", 15)
	got := members(s.RangeByScore(core.MinScore, core.MaxScore))
	if len(got) != 3 || got[0] != "a" || got[1] != "c" || got[2] != "b" {
		t.Fatalf("unexpected order: %v", got)
	}
	s.Upsert("b", 1)
	got = members(s.RangeByScore(core.MinScore, core.MaxScore))
	if got[0] != "b" {
		t.Fatalf("b should lead, got %v", got)
	}
	if s.Len() != 3 {
		t.Fatalf("upsert must not duplicate, len=%d", s.Len())
	}
}

func TestSkipListTiesBreakByMember(t *testing.T) {
	s := NewSkipList()
	s.Upsert("zed", 1)
	s.Upsert("amy", 1)
	got := members(s.RangeByScore(core.MinScore, core.MaxScore))
	if got[0] != "amy" || got[1] != "zed" {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestSkipListRangeAndRemove(t *testing.T) {
	s := NewSkipList()
	for i, m := range []string{"a", "b", "c", "d", "e"} {
		s.Upsert(m, int64(i+1))
	}
	got := members(s.RangeByScore(2, 4))
	if len(got) != 3 || got[0] != "b" || got[2] != "d" {
		t.Fatalf("unexpected range: %v", got)
	}
	if !s.Remove("c") || s.Remove("c") {
		t.Fatal("remove should report presence once")
	}
	if _, ok := s.Score("c"); ok {
		t.Fatal("c should be gone")
	}
	if sc, ok := s.Score("e"); !ok || sc != 5 {
		t.Fatalf("unexpected score for e: %d %v", sc, ok)
	}
	if s.RangeByScore(5, 1) != nil {
		t.Fatal("inverted range must be empty")
	}
}
