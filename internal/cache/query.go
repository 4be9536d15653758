package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Fetcher loads the value of a query. It runs detached from the caller's
// cancellation, so it keeps running when every waiter has gone away.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Query binds a key, a TTL and a fetcher to a Store.
type Query[T any] struct {
	fetch Fetcher[T]
	key   Key
	store *Store
	ttl   time.Duration
}

// NewQuery registers a query. A ttl of zero keeps results until they are
// invalidated.
func NewQuery[T any](store *Store, key Key, ttl time.Duration, fetch Fetcher[T]) *Query[T] {
	return &Query[T]{fetch: fetch, key: key, store: store, ttl: ttl}
}

func (q *Query[T]) Key() Key {
	return q.key
}

func (q *Query[T]) fetchAny(ctx context.Context) (any, error) {
	return q.fetch(ctx)
}

// Get returns the cached value if it is fresh. Otherwise it joins the fetch
// in flight for the key, or starts one. If ctx ends first, Get returns
// ctx.Err() and the fetch continues.
func (q *Query[T]) Get(ctx context.Context) (T, error) {
	return q.typed(q.store.get(ctx, q.key, q.ttl, q.fetchAny, false))
}

// Refetch requests a new fetch even if the cached value is fresh.
func (q *Query[T]) Refetch(ctx context.Context) (T, error) {
	return q.typed(q.store.get(ctx, q.key, q.ttl, q.fetchAny, true))
}

// Invalidate marks the cached value as stale.
func (q *Query[T]) Invalidate() {
	q.store.Invalidate(q.key)
}

// State returns the current state without fetching.
func (q *Query[T]) State() State[T] {
	return stateOf[T](q.store.state(q.key))
}

// Subscribe starts observing the query. A fetch is started if the cached
// value is missing or stale.
func (q *Query[T]) Subscribe(ctx context.Context) *Subscription[T] {
	sub := newSubscription[T](q.store, q.key)
	q.store.subscribe(ctx, q.key, q.ttl, q.fetchAny, sub.sub)
	return sub
}

func (q *Query[T]) typed(v any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok && v != nil {
		return zero, fmt.Errorf("cached value for %s has type %T, not %T", q.key, v, zero)
	}
	return t, nil
}

// Subscription delivers the states of one key. Only the latest state is
// kept: a slow reader skips intermediate states but always sees the last one.
type Subscription[T any] struct {
	ch    chan State[T]
	key   Key
	once  sync.Once
	store *Store
	sub   *subscriber
}

func newSubscription[T any](store *Store, key Key) *Subscription[T] {
	s := &Subscription[T]{
		ch:    make(chan State[T], 1),
		key:   key,
		store: store,
	}
	s.sub = &subscriber{
		// Called with the store lock held, which makes the store the only
		// sender and keeps the drain-then-send from blocking.
		deliver: func(snap snapshot) {
			select {
			case <-s.ch:
			default:
			}
			s.ch <- stateOf[T](snap)
		},
		close: func() {
			close(s.ch)
		},
	}
	return s
}

// Updates returns the channel of states. It is closed by Close.
func (s *Subscription[T]) Updates() <-chan State[T] {
	return s.ch
}

// Close stops delivery. It is safe to call more than once.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		s.store.unsubscribe(s.key, s.sub)
	})
}
