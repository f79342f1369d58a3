package pool

import (
	"errors"
	"runtime"
	"sync"

	"go.uber.org/zap"
)

// job is one unit of work. cancel resolves its future without running it.
type job struct {
	run    func()
	cancel func(error)
}

// Pool runs submitted jobs on a fixed set of worker goroutines pulling from
// one shared queue. Construct it explicitly and Destroy it once.
type Pool struct {
	queue   *workQueue[job]
	workers int
	log     *zap.Logger

	wg          sync.WaitGroup
	destroyOnce sync.Once
}

// Option configures a Pool.
type Option func(*Pool)

func WithLogger(log *zap.Logger) Option {
	return func(p *Pool) { p.log = log }
}

// DefaultWorkers is max(NumCPU, 2) - 1, so there is always at least one.
func DefaultWorkers() int {
	return max(runtime.NumCPU(), 2) - 1
}

// New starts a pool with the given number of workers; workers <= 0 means
// DefaultWorkers.
func New(workers int, opts ...Option) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	p := &Pool{
		queue:   newWorkQueue[job](),
		workers: workers,
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(p)
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.log.Debug("worker pool started", zap.Int("workers", workers))
	return p
}

func (p *Pool) Workers() int { return p.workers }

// Queued reports how many submitted jobs have not started yet.
func (p *Pool) Queued() int { return p.queue.Len() }

func (p *Pool) worker(n int) {
	defer p.wg.Done()
	for {
		j, ok := p.queue.WaitPop()
		if !ok {
			p.log.Debug("worker exiting", zap.Int("worker", n))
			return
		}
		j.run()
	}
}

// Submit schedules fn and returns its future immediately. A panic in fn is
// recovered and surfaces as a *PanicError from the future.
func Submit[T any](p *Pool, fn func() T) *Future[T] {
	return SubmitErr(p, func() (T, error) { return fn(), nil })
}

// SubmitErr is Submit for jobs that can fail with an ordinary error.
func SubmitErr[T any](p *Pool, fn func() (T, error)) *Future[T] {
	f := newFuture[T]()
	j := job{
		run: func() {
			v, err := Call(fn)
			var pe *PanicError
			if errors.As(err, &pe) {
				p.log.Error("job panicked", zap.Any("panic", pe.Value))
			}
			f.resolve(v, err)
		},
		cancel: func(err error) {
			var zero T
			f.resolve(zero, err)
		},
	}
	if !p.queue.Push(j) {
		j.cancel(ErrPoolClosed)
	}
	return f
}

// Destroy invalidates the queue and waits for every worker to exit. Jobs
// already running finish; jobs still queued are dropped and their futures
// resolve with ErrPoolClosed. Later calls are no-ops.
func (p *Pool) Destroy() {
	p.destroyOnce.Do(func() {
		dropped := p.queue.Invalidate()
		for _, j := range dropped {
			j.cancel(ErrPoolClosed)
		}
		p.wg.Wait()
		p.log.Debug("worker pool stopped", zap.Int("dropped", len(dropped)))
	})
}
