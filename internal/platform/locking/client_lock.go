// Package locking provides the per-client mutual-exclusion boundary that
// serializes postings against the same trust account. Locks are keyed by
// client ID, so operations on different clients never contend. This is an
// in-process discipline; the pgsql posting path additionally row-locks the
// client record and re-verifies the balance snapshot against the ledger, so a
// posting validated against a balance another process has since changed aborts
// instead of committing.
package locking

import (
	"context"
	"sync"
	"time"

	"github.com/SajmustafaKe/trustledger/internal/apperrors"
)

// ClientLocker hands out exclusive, client-scoped critical sections with a
// bounded wait. A caller that cannot acquire the lock within maxWait receives
// apperrors.ErrLockTimeout rather than blocking forever.
type ClientLocker struct {
	maxWait time.Duration

	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewClientLocker creates a ClientLocker with the given maximum wait per
// acquisition. A non-positive maxWait disables the timeout.
func NewClientLocker(maxWait time.Duration) *ClientLocker {
	return &ClientLocker{
		maxWait: maxWait,
		locks:   make(map[string]chan struct{}),
	}
}

func (l *ClientLocker) lockChan(clientID string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.locks[clientID]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[clientID] = ch
	}
	return ch
}

// Acquire takes the exclusive lock for clientID. It returns a release function
// that must be called on every exit path, typically via defer.
func (l *ClientLocker) Acquire(ctx context.Context, clientID string) (release func(), err error) {
	ch := l.lockChan(clientID)

	var timeout <-chan time.Time
	if l.maxWait > 0 {
		timer := time.NewTimer(l.maxWait)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timeout:
		return nil, apperrors.ErrLockTimeout
	}
}

// WithClientLock runs fn while holding the exclusive lock for clientID. The
// lock is released on all exit paths, including a panic inside fn.
func (l *ClientLocker) WithClientLock(ctx context.Context, clientID string, fn func() error) error {
	release, err := l.Acquire(ctx, clientID)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}
