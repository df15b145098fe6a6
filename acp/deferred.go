package acp

import (
	"context"
	"sync"
)

// Deferred is an asynchronous result that is settled from outside its
// creating scope. The first Resolve or Reject wins; later calls are no-ops.
type Deferred[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
	err  error
}

// NewDeferred creates an unsettled Deferred.
func NewDeferred[T any]() *Deferred[T] {
	return &Deferred[T]{done: make(chan struct{})}
}

// Resolve settles the deferred with a value. No-op if already settled.
func (d *Deferred[T]) Resolve(val T) {
	d.once.Do(func() {
		d.val = val
		close(d.done)
	})
}

// Reject settles the deferred with an error. No-op if already settled.
func (d *Deferred[T]) Reject(err error) {
	d.once.Do(func() {
		d.err = err
		close(d.done)
	})
}

// Await blocks until the deferred settles or the context is cancelled.
// There is no built-in timeout; callers abandon stale handles via ctx.
func (d *Deferred[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-d.done:
		return d.val, d.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Settled reports whether the deferred has been resolved or rejected.
func (d *Deferred[T]) Settled() bool {
	select {
	case <-d.done:
		return true
	default:
		return false
	}
}
