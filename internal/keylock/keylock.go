// Package keylock provides a table of named mutexes so operations on the
// same key serialize while unrelated keys proceed concurrently.
package keylock

import "sync"

// Table hands out one mutex per key. Entries are reference-counted and
// removed once no goroutine holds or waits on them, so the table stays
// proportional to the number of keys in active use.
type Table struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// New creates an empty lock table.
func New() *Table {
	return &Table{entries: make(map[string]*entry)}
}

// Lock acquires the mutex for the given key, blocking until it is free.
func (t *Table) Lock(key string) {
	t.mu.Lock()
	e, ok := t.entries[key]
	if !ok {
		e = &entry{}
		t.entries[key] = e
	}
	e.refs++
	t.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the mutex for the given key. It must pair with a prior
// Lock on the same key; unlocking an unheld key panics.
func (t *Table) Unlock(key string) {
	t.mu.Lock()
	e, ok := t.entries[key]
	if !ok {
		t.mu.Unlock()
		panic("keylock: unlock of unheld key " + key)
	}
	e.refs--
	if e.refs == 0 {
		delete(t.entries, key)
	}
	t.mu.Unlock()

	e.mu.Unlock()
}

// Len returns the number of keys currently held or waited on.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
