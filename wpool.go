package itemqueue

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	lg "github.com/Andrej220/go-utils/zlog"
)

const (
	DefaultMaxWorkers = 10
)

// WorkerPool is a Launcher backed by a fixed set of worker goroutines.
//
// Use it instead of GoLauncher to reuse goroutines, or to share one bounded
// set of workers between several queues. Launch blocks while every worker is
// busy and the submit buffer is full; give the pool at least as many workers
// as the queue's concurrency to keep the queue's event loop responsive.
type WorkerPool struct {
	ctx           context.Context
	jobs          chan func()
	wg            sync.WaitGroup
	maxWorkers    int
	activeWorkers atomic.Int32
	stopOnce      sync.Once
	mu            sync.RWMutex  // orders Launch against Shutdown closing jobs
	closed        chan struct{} // signals no more submissions
	pinCPUs       bool
}

// PoolOption configures a WorkerPool.
type PoolOption func(*WorkerPool)

// WithCPUPinning locks each worker to its own OS thread and binds that thread
// to one CPU, round robin. Only supported on linux; elsewhere workers log a
// warning and run unpinned.
func WithCPUPinning() PoolOption {
	return func(p *WorkerPool) { p.pinCPUs = true }
}

// NewWorkerPool starts maxWorkers goroutines. ctx carries the logger.
func NewWorkerPool(ctx context.Context, maxWorkers int, opts ...PoolOption) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	if ctx == nil {
		ctx = context.Background()
	}

	p := &WorkerPool{
		ctx:        ctx,
		jobs:       make(chan func(), maxWorkers*2),
		maxWorkers: maxWorkers,
		closed:     make(chan struct{}),
	}
	for _, o := range opts {
		o(p)
	}
	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	return p
}

// Launch hands task to a worker, blocking while the pool is saturated.
func (p *WorkerPool) Launch(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	select {
	case <-p.closed:
		return ErrClosed
	default:
	}
	p.jobs <- task
	return nil
}

// TryLaunch is the non-blocking form of Launch.
func (p *WorkerPool) TryLaunch(task func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	select {
	case <-p.closed:
		return false
	default:
	}
	select {
	case p.jobs <- task:
		return true
	default:
		return false
	}
}

// Shutdown stops accepting tasks, lets queued tasks drain and waits for the
// workers to exit or for ctx to end.
func (p *WorkerPool) Shutdown(ctx context.Context) error {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		close(p.closed) // reject new tasks
		close(p.jobs)   // drain
		p.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.wg.Wait()
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop is the blocking form of Shutdown.
func (p *WorkerPool) Stop() { _ = p.Shutdown(context.Background()) }

func (p *WorkerPool) worker(n int) {
	defer p.wg.Done()
	if p.pinCPUs {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		cpu := n % runtime.NumCPU()
		if err := pinToCPU(cpu); err != nil {
			lg.FromContext(p.ctx).Warn("worker not pinned", lg.Int("cpu", cpu), lg.Any("error", err))
		}
	}
	for task := range p.jobs {
		p.activeWorkers.Add(1)
		runTask(p.ctx, task)
		p.activeWorkers.Add(-1)
	}
	lg.FromContext(p.ctx).Info("worker stopped", lg.Int32("active_workers", p.activeWorkers.Load()))
}

func (p *WorkerPool) ActiveWorkers() int32 { return p.activeWorkers.Load() }
func (p *WorkerPool) QueueLength() int     { return len(p.jobs) }
