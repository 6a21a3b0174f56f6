package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dfelipebr/oddsmirror/internal/domain"
)

// LockManager is a process-local implementation of domain.LockManager for
// the dev mode and tests. The TTL is ignored: locks are only released by the
// returned unlock function, which is safe given everything runs in one
// process.
type LockManager struct {
	mu    sync.Mutex
	locks map[string]bool
}

// NewLockManager creates an empty in-process lock manager.
func NewLockManager() *LockManager {
	return &LockManager{locks: make(map[string]bool)}
}

// Acquire obtains the lock for key or returns domain.ErrLockHeld. The unlock
// function is safe to call more than once.
func (lm *LockManager) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if lm.locks[key] {
		return nil, domain.ErrLockHeld
	}
	lm.locks[key] = true

	released := false
	unlock := func() {
		lm.mu.Lock()
		defer lm.mu.Unlock()
		if released {
			return
		}
		released = true
		delete(lm.locks, key)
	}
	return unlock, nil
}

// Compile-time interface check.
var _ domain.LockManager = (*LockManager)(nil)
