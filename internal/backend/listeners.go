package backend

import (
	"context"
	"slices"
	"sync"
)

// Listeners is a registry of auth-change callbacks, safe for concurrent use.
type Listeners struct {
	mu    sync.Mutex
	next  int
	funcs map[int]AuthChangeFunc
}

// Add registers fn and returns a func that removes it. Removing twice is a no-op.
func (l *Listeners) Add(fn AuthChangeFunc) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.funcs == nil {
		l.funcs = make(map[int]AuthChangeFunc)
	}
	id := l.next
	l.next++
	l.funcs[id] = fn

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.funcs, id)
	}
}

// Emit calls every registered callback in registration order.
// Callbacks run on the caller's goroutine, outside the registry lock.
func (l *Listeners) Emit(ctx context.Context, event Event, session *Session) {
	l.mu.Lock()
	ids := make([]int, 0, len(l.funcs))
	for id := range l.funcs {
		ids = append(ids, id)
	}
	funcs := make([]AuthChangeFunc, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		funcs = append(funcs, l.funcs[id])
	}
	l.mu.Unlock()

	for _, fn := range funcs {
		fn(ctx, event, session)
	}
}

// Len returns the number of registered callbacks.
func (l *Listeners) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.funcs)
}
