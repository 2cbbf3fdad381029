package dataset

import "sync"

// Locks serializes mutating operations per canonical dataset name.
// The service layer may run concurrent requests against the same
// dataset; without this, writers to the same spec/normalized/database
// artifacts race last-writer-wins.
type Locks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLocks creates an empty lock set.
func NewLocks() *Locks {
	return &Locks{locks: make(map[string]*sync.Mutex)}
}

// Acquire locks the named dataset and returns its release function.
func (l *Locks) Acquire(name string) func() {
	l.mu.Lock()
	m, ok := l.locks[name]
	if !ok {
		m = &sync.Mutex{}
		l.locks[name] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
