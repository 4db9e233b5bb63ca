package feed

import "context"

// Watch attaches an observer that forwards snapshots into a single-slot
// channel. A newer snapshot replaces one the reader has not taken yet, so
// slow readers skip intermediate states but always see the latest.
//
// The channel is never closed; readers stop on their own context and call
// detach.
func (p *Publisher[T]) Watch(ctx context.Context) (<-chan []T, func(), error) {
	ch := make(chan []T, 1)

	detach, err := p.Observe(ctx, func(snapshot []T) {
		// deliveries are serialized, so this is the only sender
		select {
		case <-ch:
		default:
		}
		ch <- snapshot
	})
	if err != nil {
		return nil, nil, err
	}

	return ch, detach, nil
}
