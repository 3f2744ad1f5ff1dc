// Package jobqueue serializes session mutation per remote address: two
// callers targeting the same address run strictly one after another,
// while distinct addresses proceed independently and concurrently.
package jobqueue

import "sync"

// Job is a unit of work that returns a result or an error. A failing job
// does not block subsequent jobs queued behind it.
type Job func() (any, error)

type addressQueue struct {
	jobs chan func()
	once sync.Once
}

func (q *addressQueue) start() {
	q.once.Do(func() {
		q.jobs = make(chan func(), 64)
		go func() {
			for job := range q.jobs {
				job()
			}
		}()
	})
}

// Manager owns one FIFO queue per address string, created lazily.
type Manager struct {
	mu     sync.Mutex
	queues map[string]*addressQueue
}

// New returns an empty manager.
func New() *Manager {
	return &Manager{queues: make(map[string]*addressQueue)}
}

func (m *Manager) queueFor(addr string) *addressQueue {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queues[addr]
	if !ok {
		q = &addressQueue{}
		q.start()
		m.queues[addr] = q
	}
	return q
}

// Submit enqueues job against addr's FIFO queue and blocks until it runs,
// returning its result. Concurrent Submit calls against different
// addresses never block each other.
func (m *Manager) Submit(addr string, job Job) (any, error) {
	q := m.queueFor(addr)

	type outcome struct {
		val any
		err error
	}
	done := make(chan outcome, 1)
	q.jobs <- func() {
		val, err := job()
		done <- outcome{val: val, err: err}
	}
	out := <-done
	return out.val, out.err
}
