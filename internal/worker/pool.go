package worker

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/zep-us/workerhttpd/internal/queue"
	"github.com/zep-us/workerhttpd/pkg/logger"
)

// Pool owns N worker goroutines and the single producer handle to the job
// queue. Construction spawns all N workers immediately; Close closes the
// queue and joins every worker.
//
// The queue itself is unbounded, so there is no backpressure knob here:
// Submit is non-blocking beyond the internal mutex.
type Pool struct {
	workerCount   int
	queue         *queue.Queue[Job]
	wg            sync.WaitGroup
	closeOnce     sync.Once
	activeWorkers prometheus.Gauge // optional; nil is a valid no-op value
}

// NewPool spawns a pool of n workers. n must be >= 1; n <= 0 is a
// programming error and panics. activeWorkers is incremented before and
// decremented after every job execution; pass nil when no gauge is wired
// (e.g. in tests).
func NewPool(n int, activeWorkers prometheus.Gauge) *Pool {
	if n <= 0 {
		panic(fmt.Sprintf("worker: pool size must be >= 1, got %d", n))
	}

	p := &Pool{
		workerCount:   n,
		queue:         queue.New[Job](),
		activeWorkers: activeWorkers,
	}

	logger.Info("Starting worker pool with %d workers", n)
	p.wg.Add(n)
	for id := 0; id < n; id++ {
		go p.runWorker(id)
	}
	return p
}

// Submit enqueues job for execution. Submit never blocks the caller beyond
// the queue's internal mutex. Submitting after Close is a programming error
// and panics (Close is the pool's exclusive closer).
func (p *Pool) Submit(job Job) {
	p.queue.Push(job)
}

// QueueDepth reports the current backlog, for metrics.
func (p *Pool) QueueDepth() int {
	return p.queue.Len()
}

// Close closes the job queue — waking every blocked worker — and joins all
// workers. Close is idempotent.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		logger.Info("Stopping worker pool: closing job queue and waiting for workers to finish")
		p.queue.Close()
	})
	p.wg.Wait()
}

// runWorker is the pop -> execute -> send loop. It terminates when the
// queue reports closure, or when a single job's handler panics — a panic
// is recovered and ends only this worker, never the pool or its siblings.
func (p *Pool) runWorker(id int) {
	defer p.wg.Done()
	logger.Info("Worker %d started", id)

	for {
		job, err := p.queue.Pop()
		if err != nil {
			logger.Info("Worker %d disconnected: shutting down", id)
			return
		}

		if terminate := p.runJob(id, job); terminate {
			return
		}
	}
}

// runJob executes one job inside a recover boundary. It reports whether the
// worker should terminate (true iff the handler panicked).
func (p *Pool) runJob(id int, job Job) (terminate bool) {
	if p.activeWorkers != nil {
		p.activeWorkers.Inc()
	}
	defer func() {
		if p.activeWorkers != nil {
			p.activeWorkers.Dec()
		}
		if r := recover(); r != nil {
			logger.Error("Worker %d disconnected due to an error: %v", id, r)
			terminate = true
		}
	}()

	if err := job.run(); err != nil {
		logger.Error("Worker %d: failed to send response: %v", id, err)
	}
	return false
}
