package sortedset

import "rankboard/core"

// Set abstracts an ordered set of members keyed by ascending score.
type Set interface {
	Upsert(member string, score int64)
	Remove(member string) bool
	Score(member string) (int64, bool)
	Len() int
	RangeByScore(min, max int64) []core.Entry
}
