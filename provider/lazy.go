package provider

import (
	"context"
	"sync"
)

// Lazy provides thread-safe lazy initialization for expensive remote clients
// (GCS client, S3 client, speech service). The constructor runs on first use;
// a successful result is memoized, a failed attempt is retried on the next
// call rather than cached forever.
type Lazy[T any] struct {
	construct func(ctx context.Context) (T, error)

	mu          sync.RWMutex
	client      T
	initialized bool
}

// NewLazy wraps a constructor in a memoizing guard.
func NewLazy[T any](construct func(ctx context.Context) (T, error)) *Lazy[T] {
	return &Lazy[T]{construct: construct}
}

// Get returns the client, constructing it on first use. Safe for concurrent
// use; only one construction runs even under contention.
func (l *Lazy[T]) Get(ctx context.Context) (T, error) {
	l.mu.RLock()
	if l.initialized {
		client := l.client
		l.mu.RUnlock()
		return client, nil
	}
	l.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.initialized {
		return l.client, nil
	}

	client, err := l.construct(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	l.client = client
	l.initialized = true
	return client, nil
}

// Ready reports whether the client has been constructed.
func (l *Lazy[T]) Ready() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.initialized
}
