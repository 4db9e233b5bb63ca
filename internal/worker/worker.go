package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var (
	ErrPoolStopped = errors.New("worker pool stopped")
	ErrQueueFull   = errors.New("worker queue full")
)

type ProcessFunc[J any] func(ctx context.Context, job J) error

// Pool runs jobs on a fixed set of goroutines fed by a bounded queue.
// Workers keep draining after ctx is cancelled; the processor sees the
// cancelled ctx and is expected to return quickly.
type Pool[J any] struct {
	name       string
	numWorkers int
	jobs       chan J
	processor  ProcessFunc[J]
	wg         sync.WaitGroup
	submitters sync.WaitGroup
	done       chan struct{}
	mu         sync.RWMutex
	stopped    bool
}

func NewPool[J any](name string, numWorkers, bufferSize int, processor ProcessFunc[J]) *Pool[J] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &Pool[J]{
		name:       name,
		numWorkers: numWorkers,
		jobs:       make(chan J, bufferSize),
		done:       make(chan struct{}),
		processor:  processor,
	}
}

func (p *Pool[J]) Start(ctx context.Context) {
	for i := 1; i <= p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

func (p *Pool[J]) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for job := range p.jobs {
		if err := p.processor(ctx, job); err != nil {
			slog.Warn("job failed", "pool", p.name, "worker", id, "error", err)
		}
	}
}

// Submit queues job, blocking while the queue is full. A blocked Submit
// returns ErrPoolStopped as soon as Stop is called.
func (p *Pool[J]) Submit(ctx context.Context, job J) error {
	p.mu.RLock()
	if p.stopped {
		p.mu.RUnlock()
		return ErrPoolStopped
	}
	p.submitters.Add(1)
	p.mu.RUnlock()
	defer p.submitters.Done()

	select {
	case p.jobs <- job:
		return nil
	case <-p.done:
		return ErrPoolStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySubmit queues job only if there is room, never blocking.
func (p *Pool[J]) TrySubmit(job J) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return ErrPoolStopped
	}

	select {
	case p.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop rejects new jobs, lets queued ones finish and waits for the workers.
func (p *Pool[J]) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.done)
	p.mu.Unlock()

	// jobs is only closed once no Submit can still send on it
	p.submitters.Wait()
	close(p.jobs)

	p.wg.Wait()
}
