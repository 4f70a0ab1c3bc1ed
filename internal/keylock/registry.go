// Package keylock provides mutual exclusion keyed by an arbitrary comparable
// identity, independent of any in-memory object holding that identity's data.
package keylock

import (
	"context"
	"sync"
)

type entry struct {
	// one-slot semaphore: a send acquires, a receive releases
	slot chan struct{}
	refs int
}

// Registry maps keys to exclusion entries. Entries are created on first use
// and removed once nobody holds or waits for them.
type Registry[K comparable] struct {
	mu      sync.Mutex
	entries map[K]*entry
}

// New builds an empty registry.
func New[K comparable]() *Registry[K] {
	return &Registry[K]{entries: make(map[K]*entry)}
}

// Lock blocks until the caller holds key or ctx is done. On success the
// returned unlock must be called exactly once; further calls are no-ops. On
// error the lock was not acquired and nothing needs releasing.
func (r *Registry[K]) Lock(ctx context.Context, key K) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e := r.acquireRef(key)

	select {
	case e.slot <- struct{}{}:
	case <-ctx.Done():
		r.releaseRef(key, e)
		return nil, ctx.Err()
	}
	// select picks randomly when both cases are ready
	if err := ctx.Err(); err != nil {
		<-e.slot
		r.releaseRef(key, e)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.slot
			r.releaseRef(key, e)
		})
	}, nil
}

// TryLock acquires key only if it is free right now.
func (r *Registry[K]) TryLock(key K) (func(), bool) {
	e := r.acquireRef(key)
	select {
	case e.slot <- struct{}{}:
	default:
		r.releaseRef(key, e)
		return nil, false
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.slot
			r.releaseRef(key, e)
		})
	}, true
}

// Len reports how many keys currently have a holder or waiter.
func (r *Registry[K]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry[K]) acquireRef(key K) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		e = &entry{slot: make(chan struct{}, 1)}
		r.entries[key] = e
	}
	e.refs++
	return e
}

func (r *Registry[K]) releaseRef(key K, e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(r.entries, key)
	}
}
