package service

import "sync"

// parentLocks serializes toggle+reconcile sequences per parent message.
// Events for different parents proceed concurrently; two events for the same
// parent never interleave their read-then-write sections.
type parentLocks struct {
	mu    sync.Mutex
	locks map[uint64]*sync.Mutex
}

func newParentLocks() *parentLocks {
	return &parentLocks{locks: make(map[uint64]*sync.Mutex)}
}

// Lock acquires the mutex for a parent key and returns its unlock func.
func (p *parentLocks) Lock(key uint64) func() {
	p.mu.Lock()
	m, ok := p.locks[key]
	if !ok {
		m = &sync.Mutex{}
		p.locks[key] = m
	}
	p.mu.Unlock()

	m.Lock()
	return m.Unlock
}
