// Package lock provides per-key mutual exclusion.  The admission
// engine serializes check-ins per member and the waitlist coordinator
// serializes queue mutations per session; both use a Keyed instance
// with "member:<id>" / "session:<id>" keys so operations on different
// keys never contend.
package lock

import "sync"

// Keyed is a table of reference-counted mutexes addressed by string
// key.  A mutex exists only while at least one goroutine holds or
// waits for it, so the table does not grow with the keyspace.
type Keyed struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// NewKeyed returns an empty lock table.
func NewKeyed() *Keyed {
	return &Keyed{locks: make(map[string]*entry)}
}

// Lock blocks until the mutex for key is held by the caller.
func (k *Keyed) Lock(key string) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the mutex for key.  Unlocking a key that is not
// held panics, same as sync.Mutex.
func (k *Keyed) Unlock(key string) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		k.mu.Unlock()
		panic("lock: unlock of unheld key " + key)
	}
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}
