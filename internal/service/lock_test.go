package service

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hivelens/internal/domain"
)

func testLock(initiator string) domain.SyncLock {
	now := time.Now().UTC()
	return domain.SyncLock{
		Initiator:           initiator,
		AcquiredAt:          now,
		DateFrom:            now.AddDate(0, 0, -3),
		DateTo:              now,
		EstimatedCompletion: now.Add(96 * time.Minute),
	}
}

func TestLockRegistry_AcquireAndRelease(t *testing.T) {
	r := NewLockRegistry()

	require.Nil(t, r.Current())

	conflict, acquired := r.TryAcquire(testLock("alice"))
	assert.True(t, acquired)
	assert.Nil(t, conflict)

	current := r.Current()
	require.NotNil(t, current)
	assert.Equal(t, "alice", current.Initiator)

	r.Release()
	assert.Nil(t, r.Current())
}

func TestLockRegistry_ConflictDescribesHolder(t *testing.T) {
	r := NewLockRegistry()

	held := testLock("alice")
	_, acquired := r.TryAcquire(held)
	require.True(t, acquired)

	conflict, acquired := r.TryAcquire(testLock("bob"))
	assert.False(t, acquired)
	require.NotNil(t, conflict)
	assert.Equal(t, "alice", conflict.Initiator)
	assert.Equal(t, held.DateFrom, conflict.DateFrom)
	assert.Equal(t, held.EstimatedCompletion, conflict.EstimatedCompletion)

	// The holder keeps the lock.
	current := r.Current()
	require.NotNil(t, current)
	assert.Equal(t, "alice", current.Initiator)
}

func TestLockRegistry_ReleaseIdempotent(t *testing.T) {
	r := NewLockRegistry()

	r.Release()
	r.Release()

	_, acquired := r.TryAcquire(testLock("alice"))
	assert.True(t, acquired)

	r.Release()
	r.Release()
	assert.Nil(t, r.Current())
}

func TestLockRegistry_CurrentReturnsCopy(t *testing.T) {
	r := NewLockRegistry()

	_, acquired := r.TryAcquire(testLock("alice"))
	require.True(t, acquired)

	current := r.Current()
	current.Initiator = "mallory"

	assert.Equal(t, "alice", r.Current().Initiator)
}

func TestLockRegistry_ConcurrentTryAcquire(t *testing.T) {
	r := NewLockRegistry()

	var wins int64
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, acquired := r.TryAcquire(testLock("racer")); acquired {
				atomic.AddInt64(&wins, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), wins)
	assert.NotNil(t, r.Current())
}
