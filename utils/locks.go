package utils

import (
	"strconv"
	"sync"
)

// EntityLocker serializes mutations per entity id. Books, chats and user
// notification feeds are updated read-modify-write, so concurrent writers on
// the same id must take turns or the last full save silently wins.
type EntityLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewEntityLocker() *EntityLocker {
	return &EntityLocker{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for the given entity and returns its unlock func.
func (l *EntityLocker) Lock(kind string, id uint) func() {
	key := kind + ":" + strconv.FormatUint(uint64(id), 10)

	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
