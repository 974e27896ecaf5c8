// Package loader provides a per-request batching cache. Many individual
// key lookups issued while one request executes are coalesced into a single
// bulk fetch, deduplicated by key. A Loader must be constructed fresh for
// each inbound request and never shared across requests.
package loader

import (
	"context"
	"sync"
	"time"
)

const (
	defaultWait     = time.Millisecond
	defaultMaxBatch = 100
)

// BatchFunc resolves a deduplicated key set in one bulk request. Keys absent
// from the result map are reported to callers as not found, not as errors.
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) (map[K]V, error)

// Thunk returns the resolved value for one key, blocking until its batch
// has been fetched. ok is false when the bulk fetch had no entry for the key.
type Thunk[V any] func() (value V, ok bool, err error)

// Option tunes a Loader.
type Option func(*config)

type config struct {
	wait     time.Duration
	maxBatch int
}

// WithWait sets the collection window before a batch is dispatched.
func WithWait(d time.Duration) Option {
	return func(c *config) { c.wait = d }
}

// WithMaxBatch caps how many distinct keys one bulk fetch may carry; a full
// batch dispatches immediately.
func WithMaxBatch(n int) Option {
	return func(c *config) { c.maxBatch = n }
}

// Loader batches and caches lookups of V by K. Keys are compared with Go's
// built-in equality, so composite keys expressed as plain structs coalesce
// structurally.
type Loader[K comparable, V any] struct {
	fetch BatchFunc[K, V]
	cfg   config

	mu      sync.Mutex
	cache   map[K]*result[V]
	current *batch[K, V]
}

type result[V any] struct {
	done  chan struct{}
	value V
	ok    bool
	err   error
}

type batch[K comparable, V any] struct {
	ctx        context.Context
	keys       []K
	timer      *time.Timer
	dispatched bool
}

// New creates a Loader around fetch.
func New[K comparable, V any](fetch BatchFunc[K, V], opts ...Option) *Loader[K, V] {
	cfg := config{wait: defaultWait, maxBatch: defaultMaxBatch}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Loader[K, V]{
		fetch: fetch,
		cfg:   cfg,
		cache: make(map[K]*result[V]),
	}
}

// Load resolves one key, blocking until its batch completes.
func (l *Loader[K, V]) Load(ctx context.Context, key K) (V, bool, error) {
	return l.LoadThunk(ctx, key)()
}

// LoadThunk registers key for the next batch and returns a Thunk that blocks
// until the value is available. Requesting all keys before resolving any
// thunk guarantees a single bulk fetch for the whole set.
func (l *Loader[K, V]) LoadThunk(ctx context.Context, key K) Thunk[V] {
	l.mu.Lock()
	if r, ok := l.cache[key]; ok {
		l.mu.Unlock()
		return r.thunk()
	}

	r := &result[V]{done: make(chan struct{})}
	l.cache[key] = r

	b := l.current
	if b == nil {
		b = &batch[K, V]{ctx: ctx}
		b.timer = time.AfterFunc(l.cfg.wait, func() { l.dispatch(b) })
		l.current = b
	}
	b.keys = append(b.keys, key)
	full := len(b.keys) >= l.cfg.maxBatch
	l.mu.Unlock()

	if full {
		l.dispatch(b)
	}
	return r.thunk()
}

// LoadAll registers every key, then resolves them together. The result map
// contains only the keys the bulk fetch found.
func (l *Loader[K, V]) LoadAll(ctx context.Context, keys []K) (map[K]V, error) {
	thunks := make([]Thunk[V], len(keys))
	for i, key := range keys {
		thunks[i] = l.LoadThunk(ctx, key)
	}

	out := make(map[K]V, len(keys))
	for i, thunk := range thunks {
		value, ok, err := thunk()
		if err != nil {
			return nil, err
		}
		if ok {
			out[keys[i]] = value
		}
	}
	return out, nil
}

// dispatch runs the bulk fetch for b exactly once and demultiplexes the
// result back to every pending thunk. A fetch error fails all of them with
// the same error; the batch never partially succeeds.
func (l *Loader[K, V]) dispatch(b *batch[K, V]) {
	l.mu.Lock()
	if b.dispatched {
		l.mu.Unlock()
		return
	}
	b.dispatched = true
	b.timer.Stop()
	if l.current == b {
		l.current = nil
	}
	keys := b.keys
	l.mu.Unlock()

	values, err := l.fetch(b.ctx, keys)

	l.mu.Lock()
	for _, key := range keys {
		r := l.cache[key]
		if err != nil {
			r.err = err
		} else {
			r.value, r.ok = values[key]
		}
		close(r.done)
	}
	l.mu.Unlock()
}

func (r *result[V]) thunk() Thunk[V] {
	return func() (V, bool, error) {
		<-r.done
		return r.value, r.ok, r.err
	}
}
