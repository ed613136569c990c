package engine

import (
	"context"

	"rankboard/core"
)

// RankingService owns per-board ordered lists and the win reordering
// algorithm. Mutations on one board are serialized; distinct boards never
// contend.
type RankingService struct {
	store    Store
	registry *Registry
	bus      *EventBus
	locks    *boardLocks
}

// NewRankingService wires a store, event bus and registry key together.
func NewRankingService(store Store, bus *EventBus, registryKey string) *RankingService {
	if store == nil || bus == nil {
		panic("NewRankingService requires non-nil store and bus")
	}
	return &RankingService{
		store:    store,
		registry: NewRegistry(store, registryKey),
		bus:      bus,
		locks:    newBoardLocks(),
	}
}

// Registry exposes the board registry backing this service.
func (s *RankingService) Registry() *Registry { return s.registry }

// Subscribe convenience method.
func (s *RankingService) Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func() {
	return s.bus.Subscribe(typ, handler)
}

// Close stops the event bus and closes the store.
func (s *RankingService) Close() error {
	s.bus.Close()
	return s.store.Close()
}

// mutate runs fn under the board's write lock and publishes the event it
// returns once the lock is released.
func (s *RankingService) mutate(ctx context.Context, board core.BoardName, fn func() (core.Outcome, *core.Event, error)) (core.Outcome, error) {
	unlock := s.locks.Lock(board)
	out, ev, err := fn()
	unlock()
	if err != nil {
		return core.Outcome{}, err
	}
	if ev != nil {
		s.bus.Publish(ctx, *ev)
	}
	return out, nil
}

// CreateBoard creates board with creator as its only participant at score 1.
func (s *RankingService) CreateBoard(ctx context.Context, board core.BoardName, creator core.Participant) (core.Outcome, error) {
	b, err := core.NormalizeBoardName(board)
	if err != nil {
		return core.Failed(core.ErrInvalidName, core.MsgInvalidName(string(board))), nil
	}
	c, err := core.NormalizeParticipant(creator)
	if err != nil {
		return core.Failed(core.ErrInvalidName, core.MsgInvalidName(string(creator))), nil
	}
	if string(b) == s.registry.Key() {
		return core.Failed(core.ErrReservedName, core.MsgReserved(b)), nil
	}
	return s.mutate(ctx, b, func() (core.Outcome, *core.Event, error) {
		exists, err := s.registry.Exists(ctx, b)
		if err != nil {
			return core.Outcome{}, nil, err
		}
		if exists {
			return core.Failed(core.ErrAlreadyExists, core.MsgAlreadyExists(b)), nil, nil
		}
		if err := s.store.UpsertScore(ctx, string(b), 1, string(c)); err != nil {
			return core.Outcome{}, nil, core.WrapStore("upsert score", err)
		}
		if err := s.registry.Register(ctx, b); err != nil {
			return core.Outcome{}, nil, err
		}
		ev := core.NewBoardCreated(b, c)
		return core.Succeeded(core.MsgCreated(b)), &ev, nil
	})
}

// DeleteBoard removes every participant of board and unregisters it.
func (s *RankingService) DeleteBoard(ctx context.Context, board core.BoardName) (core.Outcome, error) {
	b, err := core.NormalizeBoardName(board)
	if err != nil {
		return core.Failed(core.ErrInvalidName, core.MsgInvalidName(string(board))), nil
	}
	if string(b) == s.registry.Key() {
		return core.Failed(core.ErrReservedName, core.MsgReserved(b)), nil
	}
	return s.mutate(ctx, b, func() (core.Outcome, *core.Event, error) {
		exists, err := s.registry.Exists(ctx, b)
		if err != nil {
			return core.Outcome{}, nil, err
		}
		if !exists {
			return core.Failed(core.ErrNotFound, core.MsgNotFound(b)), nil, nil
		}
		if err := s.store.Delete(ctx, string(b)); err != nil {
			return core.Outcome{}, nil, core.WrapStore("delete", err)
		}
		if err := s.registry.Unregister(ctx, b); err != nil {
			return core.Outcome{}, nil, err
		}
		ev := core.NewBoardDeleted(b)
		return core.Succeeded(core.MsgDeleted(b)), &ev, nil
	})
}

// AddParticipant appends name at the bottom of board.
func (s *RankingService) AddParticipant(ctx context.Context, board core.BoardName, name core.Participant) (core.Outcome, error) {
	b, p, out, ok := s.normalizePair(board, name)
	if !ok {
		return out, nil
	}
	return s.mutate(ctx, b, func() (core.Outcome, *core.Event, error) {
		entries, err := s.entries(ctx, b)
		if err != nil {
			return core.Outcome{}, nil, err
		}
		if len(entries) == 0 {
			return core.Failed(core.ErrNotFound, core.MsgNotFound(b)), nil, nil
		}
		if indexOf(entries, p) >= 0 {
			return core.Failed(core.ErrAlreadyMember, core.MsgAlreadyMember(b, p)), nil, nil
		}
		maxScore := entries[len(entries)-1].Score
		if err := s.store.UpsertScore(ctx, string(b), maxScore+1, string(p)); err != nil {
			return core.Outcome{}, nil, core.WrapStore("upsert score", err)
		}
		out := core.Succeeded(core.MsgAdded(b, p))
		out.Position = len(entries) + 1
		ev := core.NewParticipantAdded(b, p)
		return out, &ev, nil
	})
}

// RemoveParticipant deletes name from board. Remaining scores are left as
// they are; removing the last participant also unregisters the board.
func (s *RankingService) RemoveParticipant(ctx context.Context, board core.BoardName, name core.Participant) (core.Outcome, error) {
	b, p, out, ok := s.normalizePair(board, name)
	if !ok {
		return out, nil
	}
	return s.mutate(ctx, b, func() (core.Outcome, *core.Event, error) {
		entries, err := s.entries(ctx, b)
		if err != nil {
			return core.Outcome{}, nil, err
		}
		if len(entries) == 0 {
			return core.Failed(core.ErrNotFound, core.MsgNotFound(b)), nil, nil
		}
		if indexOf(entries, p) < 0 {
			return core.Failed(core.ErrNotMember, core.MsgNotMember(b, p)), nil, nil
		}
		if err := s.store.Remove(ctx, string(b), string(p)); err != nil {
			return core.Outcome{}, nil, core.WrapStore("remove", err)
		}
		if len(entries) == 1 {
			if err := s.registry.Unregister(ctx, b); err != nil {
				return core.Outcome{}, nil, err
			}
		}
		ev := core.NewParticipantRemoved(b, p)
		return core.Succeeded(core.MsgRemoved(b, p)), &ev, nil
	})
}

// RecordWin applies a win of winner over loser. A winner ranked below the
// loser is moved directly above the loser and the whole board is renumbered
// to 1..N; otherwise the order is left untouched.
func (s *RankingService) RecordWin(ctx context.Context, board core.BoardName, winner, loser core.Participant) (core.Outcome, error) {
	b, w, out, ok := s.normalizePair(board, winner)
	if !ok {
		return out, nil
	}
	l, err := core.NormalizeParticipant(loser)
	if err != nil {
		return core.Failed(core.ErrInvalidName, core.MsgInvalidName(string(loser))), nil
	}
	return s.mutate(ctx, b, func() (core.Outcome, *core.Event, error) {
		members, err := s.store.RangeByScore(ctx, string(b), core.MinScore, core.MaxScore)
		if err != nil {
			return core.Outcome{}, nil, core.WrapStore("range by score", err)
		}
		if len(members) < 2 {
			return core.Failed(core.ErrNotFound, core.MsgNotFound(b)), nil, nil
		}
		wPos, lPos := position(members, w), position(members, l)
		if wPos < 0 || lPos < 0 {
			return core.Failed(core.ErrNotMember, core.MsgNotBothMembers(b, w, l)), nil, nil
		}
		if wPos <= lPos {
			out := core.Succeeded(core.MsgDefended(b, w, l, wPos+1))
			out.Position = wPos + 1
			ev := core.NewWinRecorded(b, w, l, wPos+1, false)
			return out, &ev, nil
		}
		reordered := moveBefore(members, wPos, lPos)
		renumbered := make([]core.Entry, len(reordered))
		for i, m := range reordered {
			renumbered[i] = core.Entry{Member: m, Score: int64(i + 1)}
		}
		if err := s.store.ReplaceScores(ctx, string(b), renumbered); err != nil {
			return core.Outcome{}, nil, core.WrapStore("replace scores", err)
		}
		out := core.Succeeded(core.MsgTook(b, w, l, lPos+1))
		out.Position = lPos + 1
		ev := core.NewWinRecorded(b, w, l, lPos+1, true)
		return out, &ev, nil
	})
}

// Display returns the board in ascending rank-score order, 1-indexed.
func (s *RankingService) Display(ctx context.Context, board core.BoardName) (core.Outcome, error) {
	b, err := core.NormalizeBoardName(board)
	if err != nil {
		return core.Failed(core.ErrInvalidName, core.MsgInvalidName(string(board))), nil
	}
	if string(b) == s.registry.Key() {
		return core.Failed(core.ErrReservedName, core.MsgReserved(b)), nil
	}
	unlock := s.locks.RLock(b)
	defer unlock()
	exists, err := s.registry.Exists(ctx, b)
	if err != nil {
		return core.Outcome{}, err
	}
	if !exists {
		return core.Failed(core.ErrNotFound, core.MsgNotFound(b)), nil
	}
	members, err := s.store.RangeByScore(ctx, string(b), core.MinScore, core.MaxScore)
	if err != nil {
		return core.Outcome{}, core.WrapStore("range by score", err)
	}
	standings := make([]core.Standing, len(members))
	for i, m := range members {
		standings[i] = core.Standing{Position: i + 1, Name: core.Participant(m)}
	}
	out := core.Succeeded(core.RenderBoard(b, standings))
	out.Standings = standings
	return out, nil
}

// ListBoards returns every registered board.
func (s *RankingService) ListBoards(ctx context.Context) (core.Outcome, error) {
	boards, err := s.registry.ListAll(ctx)
	if err != nil {
		return core.Outcome{}, err
	}
	out := core.Succeeded(core.RenderBoardList(boards))
	out.Boards = boards
	return out, nil
}

// Exists reports whether board currently has participants.
func (s *RankingService) Exists(ctx context.Context, board core.BoardName) (bool, error) {
	b, err := core.NormalizeBoardName(board)
	if err != nil || string(b) == s.registry.Key() {
		return false, nil
	}
	unlock := s.locks.RLock(b)
	defer unlock()
	return s.registry.Exists(ctx, b)
}

func (s *RankingService) normalizePair(board core.BoardName, name core.Participant) (core.BoardName, core.Participant, core.Outcome, bool) {
	b, err := core.NormalizeBoardName(board)
	if err != nil {
		return "", "", core.Failed(core.ErrInvalidName, core.MsgInvalidName(string(board))), false
	}
	if string(b) == s.registry.Key() {
		return "", "", core.Failed(core.ErrReservedName, core.MsgReserved(b)), false
	}
	p, err := core.NormalizeParticipant(name)
	if err != nil {
		return "", "", core.Failed(core.ErrInvalidName, core.MsgInvalidName(string(name))), false
	}
	return b, p, core.Outcome{}, true
}

func (s *RankingService) entries(ctx context.Context, b core.BoardName) ([]core.Entry, error) {
	entries, err := s.store.RangeByScoreWithScores(ctx, string(b), core.MinScore, core.MaxScore)
	return entries, core.WrapStore("range by score with scores", err)
}

func indexOf(entries []core.Entry, p core.Participant) int {
	for i, e := range entries {
		if e.Member == string(p) {
			return i
		}
	}
	return -1
}

func position(members []string, p core.Participant) int {
	for i, m := range members {
		if m == string(p) {
			return i
		}
	}
	return -1
}

// moveBefore removes the element at from and reinserts it at index to.
// Callers guarantee to < from.
func moveBefore(members []string, from, to int) []string {
	out := make([]string, 0, len(members))
	out = append(out, members[:to]...)
	out = append(out, members[from])
	out = append(out, members[to:from]...)
	out = append(out, members[from+1:]...)
	return out
}
