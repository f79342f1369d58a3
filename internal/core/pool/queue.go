package pool

import "sync"

// workQueue is a blocking FIFO shared by the pool's workers. Invalidate wakes
// every blocked Pop and hands back whatever was still queued.
type workQueue[T any] struct {
	mu      sync.Mutex
	cond    *sync.Cond
	items   []T
	invalid bool
}

func newWorkQueue[T any]() *workQueue[T] {
	q := &workQueue[T]{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push enqueues v. It reports false if the queue was already invalidated.
func (q *workQueue[T]) Push(v T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.invalid {
		return false
	}
	q.items = append(q.items, v)
	q.cond.Signal()
	return true
}

// WaitPop blocks until an item is available or the queue is invalidated.
func (q *workQueue[T]) WaitPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.invalid {
		q.cond.Wait()
	}
	var zero T
	if q.invalid {
		return zero, false
	}
	v := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	return v, true
}

// Invalidate stops the queue and returns the items nobody popped.
func (q *workQueue[T]) Invalidate() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.invalid = true
	left := q.items
	q.items = nil
	q.cond.Broadcast()
	return left
}

func (q *workQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
