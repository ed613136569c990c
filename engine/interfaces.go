package engine

import (
	"context"

	"rankboard/core"
)

// Store abstracts the persistent ordered-set and membership-set operations the
// ranking engine needs. Implementations return raw errors; the engine wraps
// them as core.StoreError.
type Store interface {
	Exists(ctx context.Context, key string) (bool, error)
	UpsertScore(ctx context.Context, key string, score int64, member string) error
	// RangeByScore returns members with min <= score <= max, ascending.
	RangeByScore(ctx context.Context, key string, min, max int64) ([]string, error)
	RangeByScoreWithScores(ctx context.Context, key string, min, max int64) ([]core.Entry, error)
	Remove(ctx context.Context, key string, member string) error
	Delete(ctx context.Context, key string) error

	MemberAdd(ctx context.Context, key string, member string) error
	MemberRemove(ctx context.Context, key string, member string) error
	Members(ctx context.Context, key string) ([]string, error)

	// ReplaceScores overwrites the scores of every given entry in one batched
	// write, as atomically as the backend allows.
	ReplaceScores(ctx context.Context, key string, entries []core.Entry) error

	Close() error
}
