package cache

import "sync"

// keyLock serializes work per key. Entries are reference counted and
// dropped once nobody holds or waits for them.
type keyLock[K comparable] struct {
	mu    sync.Mutex
	locks map[K]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyLock[K comparable]() *keyLock[K] {
	return &keyLock[K]{locks: make(map[K]*refMutex)}
}

// Lock acquires the lock for key and returns its release func.
func (l *keyLock[K]) Lock(key K) (unlock func()) {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &refMutex{}
		l.locks[key] = m
	}
	m.refs++
	l.mu.Unlock()

	m.Lock()

	return func() {
		m.Unlock()

		l.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

// Len returns the number of keys currently held or awaited.
func (l *keyLock[K]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
