// Package singleflight coalesces concurrent calls for the same key so the
// supplied fn runs at most once while callers share its result. The
// autoload package uses it to collapse duplicate directory scans issued by
// concurrent CanLoad probes.
package singleflight

import (
	"context"
	"sync"
)

// Group deduplicates in-flight work by key.
//
// The first caller for a key becomes the leader and runs fn; followers
// wait for the shared result. Publishing (val, err) happens-before
// close(done), so reads after <-done observe the final values. A follower
// whose ctx is cancelled unblocks alone; the leader's fn keeps running.
type Group[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]*flight[V]
}

type flight[V any] struct {
	done chan struct{} // closed once val/err are published
	val  V
	err  error
}

// Do runs fn once per key among concurrent callers and returns the shared
// result. Cancellation of a follower's ctx does not stop the leader; pass
// ctx into fn if the work itself must be cancellable.
func (g *Group[K, V]) Do(ctx context.Context, key K, fn func() (V, error)) (V, error) {
	g.mu.Lock()
	if g.m == nil {
		g.m = make(map[K]*flight[V])
	}
	if f, ok := g.m[key]; ok {
		done := f.done
		g.mu.Unlock()

		select {
		case <-done:
			return f.val, f.err
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err()
		}
	}

	// We are the leader for this key.
	f := &flight[V]{done: make(chan struct{})}
	g.m[key] = f
	g.mu.Unlock()

	// Execute fn outside the lock.
	v, err := fn()

	// Publish and wake followers.
	f.val, f.err = v, err
	close(f.done)

	g.mu.Lock()
	delete(g.m, key)
	g.mu.Unlock()

	return v, err
}
