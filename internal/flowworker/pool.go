// Package flowworker dispatches per-flow DNS packets to a bounded set of
// worker goroutines with flow affinity: every packet for a given flow
// is handled by the same worker, in submission order, so a flow's
// dnsflow.State is never touched concurrently without needing its own
// lock.
package flowworker

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/dnsscience/dnsscienced/internal/flowkey"
)

var (
	ErrPoolClosed = errors.New("flow worker pool closed")
	ErrQueueFull  = errors.New("flow worker queue is full")
)

// Job is one unit of per-flow work: decode a packet against the flow
// state it belongs to.
type Job func()

// Config holds pool construction parameters.
type Config struct {
	// Workers is the number of worker goroutines, one queue each.
	// 0 defaults to runtime.NumCPU().
	Workers int

	// QueueSize bounds each worker's private queue. 0 defaults to 1024.
	QueueSize int

	// PanicHandler, if set, is called with the recovered value whenever
	// a Job panics; the worker itself keeps running.
	PanicHandler func(interface{})
}

// Pool is a fixed set of single-queue workers selected by flowkey.Key.
type Pool struct {
	queues []chan Job
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool

	panicHandler func(interface{})

	jobsSubmitted atomic.Uint64
	jobsCompleted atomic.Uint64
	jobsRejected  atomic.Uint64
	jobsPanicked  atomic.Uint64
}

// NewPool starts cfg.Workers goroutines, each draining its own queue.
func NewPool(cfg Config) *Pool {
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 1024
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		queues:       make([]chan Job, cfg.Workers),
		ctx:          ctx,
		cancel:       cancel,
		panicHandler: cfg.PanicHandler,
	}
	for i := range p.queues {
		p.queues[i] = make(chan Job, cfg.QueueSize)
	}

	p.wg.Add(len(p.queues))
	for i := range p.queues {
		go p.worker(i)
	}
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.queues[id]:
			if !ok {
				return
			}
			p.run(job)
		}
	}
}

func (p *Pool) run(job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.jobsPanicked.Add(1)
			if p.panicHandler != nil {
				p.panicHandler(r)
			}
		}
	}()
	job()
	p.jobsCompleted.Add(1)
}

// Submit routes job to the worker owning key, non-blocking: if that
// worker's queue is full the job is rejected rather than stalling the
// caller, since a slow worker must never back up packet capture.
func (p *Pool) Submit(key flowkey.Key, job Job) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}
	p.jobsSubmitted.Add(1)
	idx := key.Shard(len(p.queues))
	select {
	case p.queues[idx] <- job:
		return nil
	default:
		p.jobsRejected.Add(1)
		return ErrQueueFull
	}
}

// Close stops accepting new jobs and waits for every queued job to
// drain before returning.
func (p *Pool) Close() error {
	if p.closed.Swap(true) {
		return ErrPoolClosed
	}
	for _, q := range p.queues {
		close(q)
	}
	p.wg.Wait()
	p.cancel()
	return nil
}

// Stats is a point-in-time snapshot of pool activity.
type Stats struct {
	Workers   int
	Submitted uint64
	Completed uint64
	Rejected  uint64
	Panicked  uint64
}

func (p *Pool) GetStats() Stats {
	return Stats{
		Workers:   len(p.queues),
		Submitted: p.jobsSubmitted.Load(),
		Completed: p.jobsCompleted.Load(),
		Rejected:  p.jobsRejected.Load(),
		Panicked:  p.jobsPanicked.Load(),
	}
}
