// Package feed delivers full-collection snapshots to live observers.
//
// A Publisher re-reads its collection through a LoadFunc on every Notify and
// hands the same snapshot to each attached observer. Observers always receive
// the complete current state, never a diff.
package feed

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// LoadFunc reads the current contents of the watched collection.
type LoadFunc[T any] func(ctx context.Context) ([]T, error)

// Callback receives a snapshot. It must not call back into the same
// Publisher synchronously.
type Callback[T any] func(snapshot []T)

type Publisher[T any] struct {
	name      string
	load      LoadFunc[T]
	observers map[uint64]Callback[T]
	nextID    atomic.Uint64
	mu        sync.RWMutex

	// serializes load+deliver so no observer sees an older snapshot after a newer one
	deliverMu sync.Mutex
}

func NewPublisher[T any](name string, load LoadFunc[T]) *Publisher[T] {
	return &Publisher[T]{
		name:      name,
		load:      load,
		observers: make(map[uint64]Callback[T]),
	}
}

// Observe attaches fn and immediately delivers the current snapshot to it.
// The returned detach func is safe to call more than once.
func (p *Publisher[T]) Observe(ctx context.Context, fn Callback[T]) (func(), error) {
	id := p.nextID.Add(1)

	p.deliverMu.Lock()
	defer p.deliverMu.Unlock()

	snapshot, err := p.load(ctx)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.observers[id] = fn
	p.mu.Unlock()

	fn(snapshot)

	slog.Debug("observer attached", "feed", p.name, "observer_id", id)

	var once sync.Once
	detach := func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.observers, id)
			p.mu.Unlock()
			slog.Debug("observer detached", "feed", p.name, "observer_id", id)
		})
	}
	return detach, nil
}

// Notify loads a fresh snapshot and delivers it to every attached observer.
// A failed load is logged and skipped.
func (p *Publisher[T]) Notify(ctx context.Context) {
	p.deliverMu.Lock()
	defer p.deliverMu.Unlock()

	if p.ObserverCount() == 0 {
		return
	}

	snapshot, err := p.load(ctx)
	if err != nil {
		slog.Error("failed to load snapshot", "feed", p.name, "error", err)
		return
	}

	p.mu.RLock()
	callbacks := make([]Callback[T], 0, len(p.observers))
	for _, fn := range p.observers {
		callbacks = append(callbacks, fn)
	}
	p.mu.RUnlock()

	for _, fn := range callbacks {
		fn(snapshot)
	}
}

func (p *Publisher[T]) ObserverCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.observers)
}

// Close detaches every observer.
func (p *Publisher[T]) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id := range p.observers {
		delete(p.observers, id)
	}
}
