package engine

import (
	"context"
	"iter"
	"sort"

	"rankboard/core"
)

// Registry tracks the set of known boards under a single store key.
type Registry struct {
	store Store
	key   string
}

// NewRegistry returns a registry stored under key (core.DefaultRegistryKey when empty).
func NewRegistry(store Store, key string) *Registry {
	if key == "" {
		key = core.DefaultRegistryKey
	}
	return &Registry{store: store, key: key}
}

// Key is the reserved store key of the registry set.
func (r *Registry) Key() string { return r.key }

// Exists reports whether the board has at least one participant entry.
func (r *Registry) Exists(ctx context.Context, board core.BoardName) (bool, error) {
	ok, err := r.store.Exists(ctx, string(board))
	return ok, core.WrapStore("exists", err)
}

func (r *Registry) Register(ctx context.Context, board core.BoardName) error {
	return core.WrapStore("member add", r.store.MemberAdd(ctx, r.key, string(board)))
}

func (r *Registry) Unregister(ctx context.Context, board core.BoardName) error {
	return core.WrapStore("member remove", r.store.MemberRemove(ctx, r.key, string(board)))
}

// ListAll returns every registered board sorted by name.
func (r *Registry) ListAll(ctx context.Context) ([]core.BoardName, error) {
	members, err := r.store.Members(ctx, r.key)
	if err != nil {
		return nil, core.WrapStore("members", err)
	}
	sort.Strings(members)
	out := make([]core.BoardName, 0, len(members))
	for _, m := range members {
		out = append(out, core.BoardName(m))
	}
	return out, nil
}

// All enumerates registered boards lazily. Each range re-reads the store, so
// the sequence can be iterated more than once.
func (r *Registry) All(ctx context.Context) iter.Seq2[core.BoardName, error] {
	return func(yield func(core.BoardName, error) bool) {
		boards, err := r.ListAll(ctx)
		if err != nil {
			yield("", err)
			return
		}
		for _, b := range boards {
			if !yield(b, nil) {
				return
			}
		}
	}
}
