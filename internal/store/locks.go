package store

import "sync"

// keyLocks hands out one RWMutex per key. Entries are never removed; the
// set of identities on one machine is small.
type keyLocks struct {
	mu sync.Mutex
	m  map[string]*sync.RWMutex
}

func (l *keyLocks) get(key string) *sync.RWMutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.m == nil {
		l.m = make(map[string]*sync.RWMutex)
	}
	mu, ok := l.m[key]
	if !ok {
		mu = &sync.RWMutex{}
		l.m[key] = mu
	}
	return mu
}
