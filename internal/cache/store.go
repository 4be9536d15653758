package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	clog "github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"
)

// errSuperseded is the result of a fetch whose key was invalidated or
// refetched while it ran. Waiters retry against the newer fetch.
var errSuperseded = errors.New("fetch superseded")

type fetchFunc func(ctx context.Context) (any, error)

type subscriber struct {
	deliver func(snapshot)
	close   func()
}

type entry struct {
	key   Key
	ttl   time.Duration
	fetch fetchFunc
	state snapshot

	// generation is bumped whenever fresh data is requested. A fetch stores
	// its result only if the generation it started with is still current.
	generation uint64
	resultGen  uint64

	fetching bool
	fetchGen uint64
	flightID uint64

	waiters     int
	subscribers map[*subscriber]struct{}
}

func (e *entry) fresh(now time.Time) bool {
	if e.state.status != StatusSuccess || e.resultGen != e.generation {
		return false
	}
	return e.ttl <= 0 || now.Before(e.state.fetchedAt.Add(e.ttl))
}

func (e *entry) expired(now time.Time) bool {
	return e.ttl > 0 && !now.Before(e.state.fetchedAt.Add(e.ttl))
}

func (e *entry) unused() bool {
	return !e.fetching && e.waiters == 0 && len(e.subscribers) == 0
}

// Store holds cached results. The zero value is not usable; use NewStore.
type Store struct {
	group   singleflight.Group
	log     *clog.Logger
	mu      sync.Mutex
	entries map[Key]*entry
	flights uint64
	now     func() time.Time
}

type Option func(*Store)

// WithClock sets the time source used for TTL checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		log:     clog.Default().WithPrefix("cache"),
		entries: make(map[Key]*entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Len returns the number of entries currently held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// entryLocked returns the entry for key, creating it if needed. The latest
// registration wins for ttl and fetch.
func (s *Store) entryLocked(key Key, ttl time.Duration, fetch fetchFunc) *entry {
	e, ok := s.entries[key]
	if !ok {
		e = &entry{key: key, subscribers: make(map[*subscriber]struct{})}
		s.entries[key] = e
	}
	e.ttl = ttl
	e.fetch = fetch
	return e
}

func flightKey(key Key, id uint64) string {
	return fmt.Sprintf("%s#%d", key, id)
}

// startLocked returns the flight serving e, starting one if none is running.
// A running flight of an older generation is returned as is; it completes
// with errSuperseded and starts the next one.
func (s *Store) startLocked(ctx context.Context, e *entry) <-chan singleflight.Result {
	if e.fetching {
		return s.group.DoChan(flightKey(e.key, e.flightID), nil)
	}

	// Flight ids are never reused, so a finished flight that singleflight
	// has not forgotten yet is never joined.
	s.flights++
	e.fetching = true
	e.fetchGen = e.generation
	e.flightID = s.flights
	e.state.status = StatusLoading
	e.state.err = nil
	s.notifyLocked(e)

	key, id, fetch := e.key, e.flightID, e.fetch
	fetchCtx := context.WithoutCancel(ctx)
	s.log.Debug("Fetching", "key", key, "generation", e.generation)

	return s.group.DoChan(flightKey(key, id), func() (any, error) {
		v, err := fetch(fetchCtx)
		return s.complete(fetchCtx, key, id, v, err)
	})
}

func (s *Store) complete(ctx context.Context, key Key, id uint64, v any, err error) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || !e.fetching || e.flightID != id {
		return nil, errSuperseded
	}
	e.fetching = false
	gen := e.fetchGen

	if gen != e.generation {
		s.log.Debug("Discarding superseded result", "key", key, "generation", gen, "current", e.generation)
		if e.waiters > 0 || len(e.subscribers) > 0 {
			s.startLocked(ctx, e)
		} else {
			delete(s.entries, key)
		}
		return nil, errSuperseded
	}

	e.resultGen = gen
	e.state.fetchedAt = s.now()
	if err != nil {
		s.log.Debug("Fetch failed", "key", key, "error", err)
		e.state.status = StatusError
		e.state.err = err
	} else {
		e.state.status = StatusSuccess
		e.state.value = v
		e.state.err = nil
	}
	s.notifyLocked(e)
	return v, err
}

func (s *Store) notifyLocked(e *entry) {
	for sub := range e.subscribers {
		sub.deliver(e.state)
	}
}

// get returns the cached value for key or waits for a fetch. With force, a
// new fetch is requested even if the cached value is fresh.
func (s *Store) get(ctx context.Context, key Key, ttl time.Duration, fetch fetchFunc, force bool) (any, error) {
	for {
		s.mu.Lock()
		e := s.entryLocked(key, ttl, fetch)
		if force {
			e.generation++
			force = false
		} else if e.fresh(s.now()) {
			v := e.state.value
			s.mu.Unlock()
			return v, nil
		}
		ch := s.startLocked(ctx, e)
		e.waiters++
		s.mu.Unlock()

		select {
		case res := <-ch:
			s.release(key)
			if errors.Is(res.Err, errSuperseded) {
				continue
			}
			return res.Val, res.Err
		case <-ctx.Done():
			s.release(key)
			return nil, ctx.Err()
		}
	}
}

func (s *Store) release(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok && e.waiters > 0 {
		e.waiters--
	}
}

func (s *Store) state(key Key) snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		return e.state
	}
	return snapshot{status: StatusIdle}
}

// Invalidate marks the result for key as stale. Entries nobody observes are
// evicted; observed entries are refetched in the background.
func (s *Store) Invalidate(key Key) {
	s.InvalidateWhere(func(k Key) bool { return k == key })
}

// InvalidateWhere invalidates every key for which match returns true and
// reports how many keys matched.
func (s *Store) InvalidateWhere(match func(Key) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key, e := range s.entries {
		if !match(key) {
			continue
		}
		n++
		e.generation++
		switch {
		case e.fetching:
			// complete() notices the new generation and refetches or evicts.
		case e.unused():
			delete(s.entries, key)
			s.log.Debug("Evicted", "key", key)
		default:
			s.startLocked(context.Background(), e)
		}
	}
	return n
}

func (s *Store) subscribe(ctx context.Context, key Key, ttl time.Duration, fetch fetchFunc, sub *subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entryLocked(key, ttl, fetch)
	if !e.fetching && !e.fresh(s.now()) {
		s.startLocked(ctx, e)
	}
	e.subscribers[sub] = struct{}{}
	sub.deliver(e.state)
}

func (s *Store) unsubscribe(key Key, sub *subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		delete(e.subscribers, sub)
	}
	sub.close()
}

// Prune evicts expired entries that have no subscribers and no fetch in
// flight. It returns the number of evicted entries.
func (s *Store) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for key, e := range s.entries {
		if !e.unused() {
			continue
		}
		if e.state.status == StatusIdle || e.expired(now) {
			delete(s.entries, key)
			n++
		}
	}
	if n > 0 {
		s.log.Debug("Pruned expired entries", "count", n, "remaining", len(s.entries))
	}
	return n
}

// RunJanitor calls Prune every interval until ctx is done. A non-positive
// interval disables pruning.
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Prune()
		}
	}
}
