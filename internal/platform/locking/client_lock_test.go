package locking_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/SajmustafaKe/trustledger/internal/apperrors"
	"github.com/SajmustafaKe/trustledger/internal/platform/locking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientLocker_AcquireAndRelease(t *testing.T) {
	locker := locking.NewClientLocker(time.Second)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "CL-1")
	require.NoError(t, err)
	release()

	// Re-acquiring after release succeeds immediately.
	release, err = locker.Acquire(ctx, "CL-1")
	require.NoError(t, err)
	release()
}

func TestClientLocker_SecondAcquireTimesOut(t *testing.T) {
	locker := locking.NewClientLocker(50 * time.Millisecond)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "CL-1")
	require.NoError(t, err)
	defer release()

	_, err = locker.Acquire(ctx, "CL-1")
	assert.ErrorIs(t, err, apperrors.ErrLockTimeout)
}

func TestClientLocker_DistinctClientsDoNotContend(t *testing.T) {
	locker := locking.NewClientLocker(50 * time.Millisecond)
	ctx := context.Background()

	releaseA, err := locker.Acquire(ctx, "CL-A")
	require.NoError(t, err)
	defer releaseA()

	releaseB, err := locker.Acquire(ctx, "CL-B")
	require.NoError(t, err)
	releaseB()
}

func TestClientLocker_ContextCancellation(t *testing.T) {
	locker := locking.NewClientLocker(time.Minute)

	release, err := locker.Acquire(context.Background(), "CL-1")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := locker.Acquire(ctx, "CL-1")
		errCh <- err
	}()
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("waiter did not observe cancellation")
	}
}

func TestClientLocker_WaiterProceedsAfterRelease(t *testing.T) {
	locker := locking.NewClientLocker(time.Second)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "CL-1")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		r, err := locker.Acquire(ctx, "CL-1")
		if err == nil {
			close(acquired)
			r()
		}
	}()

	time.Sleep(20 * time.Millisecond)
	release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the released lock")
	}
}

func TestWithClientLock_SerializesCriticalSections(t *testing.T) {
	locker := locking.NewClientLocker(5 * time.Second)
	ctx := context.Background()

	var inside, maxInside int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locker.WithClientLock(ctx, "CL-1", func() error {
				mu.Lock()
				inside++
				if inside > maxInside {
					maxInside = inside
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInside, "critical sections overlapped")
}

func TestWithClientLock_ReleasesOnError(t *testing.T) {
	locker := locking.NewClientLocker(50 * time.Millisecond)
	ctx := context.Background()

	sentinel := errors.New("boom")
	err := locker.WithClientLock(ctx, "CL-1", func() error { return sentinel })
	assert.ErrorIs(t, err, sentinel)

	// The lock was released despite the error.
	release, err := locker.Acquire(ctx, "CL-1")
	require.NoError(t, err)
	release()
}
