package worker

import (
	"context"
	"log"
	"runtime"
	"sync"
)

// Job is a unit of blocking work, such as encoding and delivering an image.
// The returned string is a short description of the outcome.
type Job func(ctx context.Context) (string, error)

// ResultCallback is invoked on job completion (from a worker goroutine).
// The event loop should pass a closure that posts back into the event loop safely.
type ResultCallback func(result string, err error)

// Pool is a fixed-size worker pool with a 1-slot input queue (strict back-pressure).
type Pool struct {
	jobs chan job
	wg   sync.WaitGroup
	once sync.Once
}

type job struct {
	ctx  context.Context
	name string
	run  Job
	cb   ResultCallback
}

// New creates a worker pool. Size defaults to NumCPU when size<=0. Queue is 1 slot.
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &Pool{jobs: make(chan job, 1)}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				log.Printf("Worker: starting %s", j.name)
				var (
					res string
					err error
				)
				if cerr := j.ctx.Err(); cerr != nil {
					err = cerr
				} else {
					res, err = j.run(j.ctx)
				}
				log.Printf("Worker: %s completed, err=%v", j.name, err)
				if j.cb != nil {
					j.cb(res, err)
				}
			}
		}()
	}
}

// Submit enqueues a job if the single-slot queue is free. Returns false if dropped.
func (p *Pool) Submit(ctx context.Context, name string, run Job, cb ResultCallback) bool {
	select {
	case p.jobs <- job{ctx: ctx, name: name, run: run, cb: cb}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work. It is safe to call more than once.
func (p *Pool) Close() {
	p.once.Do(func() { close(p.jobs) })
	p.wg.Wait()
}
