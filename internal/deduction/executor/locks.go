package executor

import "sync"

// saleLocks serializes executions of one sale reference within the process.
// Entries live only while someone holds or waits on them.
type saleLocks struct {
	mu    sync.Mutex
	byRef map[string]*saleLock
}

type saleLock struct {
	mu      sync.Mutex
	waiters int
}

func (l *saleLocks) lock(ref string) func() {
	l.mu.Lock()
	if l.byRef == nil {
		l.byRef = make(map[string]*saleLock)
	}
	sl, ok := l.byRef[ref]
	if !ok {
		sl = &saleLock{}
		l.byRef[ref] = sl
	}
	sl.waiters++
	l.mu.Unlock()

	sl.mu.Lock()
	return func() {
		sl.mu.Unlock()
		l.mu.Lock()
		if sl.waiters--; sl.waiters == 0 {
			delete(l.byRef, ref)
		}
		l.mu.Unlock()
	}
}

func (l *saleLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byRef)
}
