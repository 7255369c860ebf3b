package bulk

import "context"

// DefaultWorkers bounds in-flight store requests when no size is configured.
const DefaultWorkers = 8

// WorkerPool limits how many store requests a batch issues at once.
type WorkerPool struct {
	sem chan struct{}
}

// NewWorkerPool creates a pool with the given size. Sizes below 1 use
// DefaultWorkers.
func NewWorkerPool(size int) *WorkerPool {
	if size <= 0 {
		size = DefaultWorkers
	}
	return &WorkerPool{
		sem: make(chan struct{}, size),
	}
}

// Size returns the number of slots.
func (p *WorkerPool) Size() int {
	return cap(p.sem)
}

// RunContext executes fn with a slot held. Returns ctx.Err() if the context
// is cancelled while waiting for a slot.
func (p *WorkerPool) RunContext(ctx context.Context, fn func()) error {
	select {
	case p.sem <- struct{}{}:
		defer func() { <-p.sem }()
		fn()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
