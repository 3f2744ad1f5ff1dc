package jobqueue

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitReturnsResult(t *testing.T) {
	m := New()
	val, err := m.Submit("alice.1", func() (any, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, val)
}

func TestSameAddressIsStrictlyOrdered(t *testing.T) {
	m := New()
	var order []int
	var mu sync.Mutex
	var wg sync.WaitGroup
	var running int32
	var overlapped int32

	for i := 0; i < 20; i++ {
		wg.Add(1)
		i := i
		go func() {
			defer wg.Done()
			m.Submit("alice.1", func() (any, error) {
				if atomic.AddInt32(&running, 1) > 1 {
					atomic.StoreInt32(&overlapped, 1)
				}
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&running, -1)
				return nil, nil
			})
		}()
	}
	wg.Wait()

	assert.Len(t, order, 20)
	assert.Equal(t, int32(0), atomic.LoadInt32(&overlapped), "jobs for one address must run one after another")
}

func TestDistinctAddressesRunConcurrently(t *testing.T) {
	m := New()
	var running int32
	var maxConcurrent int32
	var wg sync.WaitGroup

	for i := 0; i < 5; i++ {
		wg.Add(1)
		addr := string(rune('a' + i))
		go func() {
			defer wg.Done()
			m.Submit(addr, func() (any, error) {
				n := atomic.AddInt32(&running, 1)
				for {
					old := atomic.LoadInt32(&maxConcurrent)
					if n <= old || atomic.CompareAndSwapInt32(&maxConcurrent, old, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				atomic.AddInt32(&running, -1)
				return nil, nil
			})
		}()
	}
	wg.Wait()

	assert.Greater(t, atomic.LoadInt32(&maxConcurrent), int32(1))
}

func TestFailingJobDoesNotBlockQueue(t *testing.T) {
	m := New()
	_, err := m.Submit("bob.1", func() (any, error) { return nil, assert.AnError })
	assert.Error(t, err)

	val, err := m.Submit("bob.1", func() (any, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", val)
}
