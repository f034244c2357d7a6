// Package memo provides memoised once-computed futures.
//
// Both traversals dedup work per key: the SKU oracle probes a kind at most
// once, the publisher puts or deletes a resource at most once even when it
// is reached through several dependents, and configuration sections are
// parsed once per parent scope. [Map] backs all of these: the first caller
// for a key starts the computation, later callers block on the same
// result, and cancellation of a waiter's context unblocks that waiter
// without abandoning the computation for the others.
package memo

import (
	"context"
	"sync"
)

// cell holds one in-flight or completed computation.
type cell[V any] struct {
	done chan struct{}
	val  V
	err  error
}

// Map is a concurrent map of lazily-computed values. The zero value is
// ready to use. A key's function runs at most once; all callers share the
// outcome, including its error.
type Map[K comparable, V any] struct {
	mu    sync.Mutex
	cells map[K]*cell[V]
}

// Do returns the memoised value for key, computing it with fn on first
// use. Concurrent callers for the same key block until the single
// computation finishes. If the caller's context is cancelled while
// waiting, Do returns ctx.Err() but the computation keeps running for the
// remaining waiters; the computation itself receives the context of the
// caller that started it.
func (m *Map[K, V]) Do(ctx context.Context, key K, fn func(context.Context) (V, error)) (V, error) {
	m.mu.Lock()
	if m.cells == nil {
		m.cells = make(map[K]*cell[V])
	}
	c, ok := m.cells[key]
	if !ok {
		c = &cell[V]{done: make(chan struct{})}
		m.cells[key] = c
		m.mu.Unlock()

		c.val, c.err = fn(ctx)
		close(c.done)
		return c.val, c.err
	}
	m.mu.Unlock()

	select {
	case <-c.done:
		return c.val, c.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Peek reports whether a completed value exists for key without starting a
// computation.
func (m *Map[K, V]) Peek(key K) (V, bool) {
	m.mu.Lock()
	c, ok := m.cells[key]
	m.mu.Unlock()
	var zero V
	if !ok {
		return zero, false
	}
	select {
	case <-c.done:
		return c.val, c.err == nil
	default:
		return zero, false
	}
}

// Lazy is a single once-computed value, the one-cell analogue of [Map].
// The zero value is ready to use.
type Lazy[V any] struct {
	m Map[struct{}, V]
}

// Get returns the memoised value, computing it with fn on first use.
// Waiters observe cancellation of their own context exactly as with
// [Map.Do].
func (l *Lazy[V]) Get(ctx context.Context, fn func(context.Context) (V, error)) (V, error) {
	return l.m.Do(ctx, struct{}{}, fn)
}
