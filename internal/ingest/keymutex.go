package ingest

import "sync"

// keyMutex serializes work per string key. Requests for the same messageId
// must not interleave their read-delta-write sequence; different keys
// proceed in parallel. Entries are reference counted and removed once the
// last holder unlocks, so the map does not grow with the key space.
type keyMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyMutex() *keyMutex {
	return &keyMutex{locks: make(map[string]*keyLock)}
}

// lock acquires the key's mutex and returns the matching unlock function.
func (k *keyMutex) lock(key string) func() {
	k.mu.Lock()
	l := k.locks[key]
	if l == nil {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
