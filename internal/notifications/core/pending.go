package core

import (
	"context"
	"sync"
)

// Pending is the future returned by Dispatcher.Dispatch. It completes exactly
// once with an Outcome.
type Pending struct {
	done    chan struct{}
	once    sync.Once
	outcome Outcome
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

// Resolved returns an already-completed Pending.
func Resolved(o Outcome) *Pending {
	p := newPending()
	p.complete(o)
	return p
}

func (p *Pending) complete(o Outcome) {
	p.once.Do(func() {
		p.outcome = o
		close(p.done)
	})
}

// Done is closed when the outcome is available.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the outcome is available or ctx ends. When ctx ends
// first the send keeps running and ctx.Err() is returned.
func (p *Pending) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-p.done:
		return p.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Then runs fn with the outcome on its own goroutine once available.
func (p *Pending) Then(fn func(Outcome)) {
	go func() {
		<-p.done
		fn(p.outcome)
	}()
}
