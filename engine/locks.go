package engine

import (
	"sync"

	"rankboard/core"
)

// boardLocks hands out one RWMutex per board, dropped once no caller holds it.
type boardLocks struct {
	mu    sync.Mutex
	locks map[core.BoardName]*boardLock
}

type boardLock struct {
	rw   sync.RWMutex
	refs int
}

func newBoardLocks() *boardLocks {
	return &boardLocks{locks: make(map[core.BoardName]*boardLock)}
}

func (l *boardLocks) acquire(board core.BoardName) *boardLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	bl, ok := l.locks[board]
	if !ok {
		bl = &boardLock{}
		l.locks[board] = bl
	}
	bl.refs++
	return bl
}

func (l *boardLocks) release(board core.BoardName, bl *boardLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	bl.refs--
	if bl.refs == 0 {
		delete(l.locks, board)
	}
}

// Lock takes the board's write lock and returns its unlock func.
func (l *boardLocks) Lock(board core.BoardName) func() {
	bl := l.acquire(board)
	bl.rw.Lock()
	return func() {
		bl.rw.Unlock()
		l.release(board, bl)
	}
}

// RLock takes the board's read lock and returns its unlock func.
func (l *boardLocks) RLock(board core.BoardName) func() {
	bl := l.acquire(board)
	bl.rw.RLock()
	return func() {
		bl.rw.RUnlock()
		l.release(board, bl)
	}
}

// size is the number of live lock entries.
func (l *boardLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
