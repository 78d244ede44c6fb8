package usecase

import (
	"sync"
	"time"
)

// SyncHealth describes one subscription feeding an in-memory view. A stale view
// keeps serving its last good snapshot.
type SyncHealth struct {
	Collection string    `json:"collection"`
	Synced     bool      `json:"synced"`
	Stale      bool      `json:"stale"`
	LastError  string    `json:"last_error,omitempty"`
	LastSyncAt time.Time `json:"last_sync_at,omitempty"`
}

// listeners is a small registry of change callbacks keyed by registration order.
type listeners[T any] struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(T)
}

func (l *listeners[T]) add(fn func(T)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = make(map[int]func(T))
	}
	l.next++
	id := l.next
	l.fns[id] = fn
	return func() {
		l.mu.Lock()
		delete(l.fns, id)
		l.mu.Unlock()
	}
}

func (l *listeners[T]) notify(v T) {
	l.mu.Lock()
	fns := make([]func(T), 0, len(l.fns))
	for i := 1; i <= l.next; i++ {
		if fn, ok := l.fns[i]; ok {
			fns = append(fns, fn)
		}
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}
