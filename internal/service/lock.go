package service

import (
	"sync"

	"hivelens/internal/domain"
)

// LockRegistry tracks the single sync run allowed at a time. It is owned by
// the orchestrator that is handed it at construction, not a package global,
// so independent orchestrators can coexist in tests.
//
// Reads return copies; writes are serialized by the mutex.
type LockRegistry struct {
	mu    sync.Mutex
	state *domain.SyncLock
}

func NewLockRegistry() *LockRegistry {
	return &LockRegistry{}
}

// TryAcquire installs state if no sync is active and reports whether it
// succeeded. On conflict it returns a copy of the holder's state so the
// caller can describe the in-flight run.
func (r *LockRegistry) TryAcquire(state domain.SyncLock) (conflict *domain.SyncLock, acquired bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != nil {
		held := *r.state
		return &held, false
	}

	r.state = &state
	return nil, true
}

// Current returns a copy of the active lock state, or nil when no sync is
// running.
func (r *LockRegistry) Current() *domain.SyncLock {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == nil {
		return nil
	}
	held := *r.state
	return &held
}

// Release clears the lock. Safe to call when already empty.
func (r *LockRegistry) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = nil
}
