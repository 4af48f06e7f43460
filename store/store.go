// Package store holds the in-memory, authoritative collections of catalog
// entities and keeps them consistent with the outcome of remote operations.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Entity is a record with a stable identifier assigned by the remote store.
type Entity interface {
	GetID() uint
}

// Remote is the remote access boundary for one entity type. C is the create
// payload and U the partial update payload.
type Remote[E Entity, C, U any] interface {
	FetchAll(ctx context.Context) ([]E, error)
	FetchByID(ctx context.Context, id uint) (E, error)
	Create(ctx context.Context, payload C) (E, error)
	Update(ctx context.Context, id uint, payload U) (E, error)
	Delete(ctx context.Context, id uint) error
}

// Options configures a Store.
type Options struct {
	// Name labels logs and metrics, e.g. "categories".
	Name   string
	Logger *slog.Logger
	// Timeout bounds every remote call. Zero means no timeout.
	Timeout time.Duration
	Metrics *Metrics
}

// State is a point-in-time view of a store.
type State[E Entity] struct {
	Items   []E
	Loading bool
	Err     string
}

// mark remembers the newest mutation applied to one id so that stale
// responses can be discarded and a slower load does not revert it.
type mark[E Entity] struct {
	seq     uint64
	entity  E
	deleted bool
}

// Store is the authoritative in-memory collection of one entity type.
// It is safe for concurrent use.
type Store[E Entity, C, U any] struct {
	name    string
	remote  Remote[E, C, U]
	logger  *slog.Logger
	timeout time.Duration
	metrics *Metrics

	mu          sync.RWMutex
	items       []E
	inflight    int
	lastErr     string
	seq         uint64
	loadApplied uint64
	marks       map[uint]mark[E]
	subs        map[int]chan struct{}
	nextSub     int

	fetches singleflight.Group
}

// New returns an empty store. Call Load to populate it.
func New[E Entity, C, U any](remote Remote[E, C, U], opts Options) *Store[E, C, U] {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	name := opts.Name
	if name == "" {
		name = "entities"
	}
	return &Store[E, C, U]{
		name:    name,
		remote:  remote,
		logger:  logger.With("store", name),
		timeout: opts.Timeout,
		metrics: opts.Metrics,
		marks:   map[uint]mark[E]{},
		subs:    map[int]chan struct{}{},
	}
}

// Name returns the label the store was created with.
func (s *Store[E, C, U]) Name() string {
	return s.name
}

// Load replaces the collection with a full fetch from the remote store.
// On failure the previous collection is kept and the error is recorded.
// Only the most recently issued load that succeeds is applied.
func (s *Store[E, C, U]) Load(ctx context.Context) error {
	seq, start := s.begin()
	var fetched []E
	err := s.call(ctx, "load", func(ctx context.Context) (err error) {
		fetched, err = s.remote.FetchAll(ctx)
		return err
	})
	s.finish("load", start, err, func() {
		if seq < s.loadApplied {
			s.logger.Debug("discarding stale load", "seq", seq, "applied", s.loadApplied)
			return
		}
		s.items = dedupe(fetched)
		s.loadApplied = seq
		for id, m := range s.marks {
			if m.seq < seq {
				delete(s.marks, id)
				continue
			}
			s.reapply(id, m)
		}
	})
	return err
}

// GetByID reads one entity straight from the remote store without touching
// the collection. Concurrent calls for the same id share one request.
func (s *Store[E, C, U]) GetByID(ctx context.Context, id uint) (E, error) {
	var out E
	err := s.passThrough(ctx, "get_by_id", func(ctx context.Context) error {
		// the shared fetch outlives any single caller
		shared := context.WithoutCancel(ctx)
		res := s.fetches.DoChan(strconv.FormatUint(uint64(id), 10), func() (v any, err error) {
			fctx := shared
			if s.timeout > 0 {
				var cancel context.CancelFunc
				fctx, cancel = context.WithTimeout(fctx, s.timeout)
				defer cancel()
			}
			// DoChan re-panics on its own goroutine
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%s get_by_id: unexpected failure: %v", s.name, r)
				}
			}()
			return s.remote.FetchByID(fctx, id)
		})
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r := <-res:
			if r.Err != nil {
				return r.Err
			}
			out = r.Val.(E)
			return nil
		}
	})
	return out, err
}

// Create creates the entity remotely and appends the returned entity.
func (s *Store[E, C, U]) Create(ctx context.Context, payload C) (E, error) {
	seq, start := s.begin()
	var created E
	err := s.call(ctx, "create", func(ctx context.Context) (err error) {
		created, err = s.remote.Create(ctx, payload)
		return err
	})
	s.finish("create", start, err, func() {
		id := created.GetID()
		s.upsert(created)
		s.marks[id] = mark[E]{seq: seq, entity: created}
	})
	return created, err
}

// Update updates the entity remotely and replaces the local entry, keeping its position.
func (s *Store[E, C, U]) Update(ctx context.Context, id uint, payload U) (E, error) {
	seq, start := s.begin()
	var updated E
	err := s.call(ctx, "update", func(ctx context.Context) (err error) {
		updated, err = s.remote.Update(ctx, id, payload)
		return err
	})
	s.finish("update", start, err, func() {
		if m, ok := s.marks[id]; ok && (m.deleted || m.seq > seq) {
			s.logger.Debug("discarding stale update", "id", id, "seq", seq, "applied", m.seq)
			return
		}
		// a newer load no longer has the entity
		if seq < s.loadApplied && s.index(id) < 0 {
			s.logger.Debug("discarding update for removed entity", "id", id, "seq", seq)
			return
		}
		s.upsert(updated)
		s.marks[id] = mark[E]{seq: seq, entity: updated}
	})
	return updated, err
}

// Delete deletes the entity remotely and removes the local entry.
func (s *Store[E, C, U]) Delete(ctx context.Context, id uint) error {
	seq, start := s.begin()
	err := s.call(ctx, "delete", func(ctx context.Context) error {
		return s.remote.Delete(ctx, id)
	})
	// a successful delete is final: any update that also succeeded reached
	// the remote store first
	s.finish("delete", start, err, func() {
		if m, ok := s.marks[id]; ok && m.seq > seq {
			seq = m.seq
		}
		s.remove(id)
		s.marks[id] = mark[E]{seq: seq, deleted: true}
	})
	return err
}

// Items returns a copy of the collection in display order.
func (s *Store[E, C, U]) Items() []E {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]E, len(s.items))
	copy(out, s.items)
	return out
}

// Get looks up an entity in the local collection.
func (s *Store[E, C, U]) Get(id uint) (E, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.index(id); i >= 0 {
		return s.items[i], true
	}
	var zero E
	return zero, false
}

// Len returns the number of entities in the collection.
func (s *Store[E, C, U]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Loading reports whether any operation is in flight.
func (s *Store[E, C, U]) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inflight > 0
}

// Err returns the message of the most recently completed operation's error,
// or "" when it succeeded.
func (s *Store[E, C, U]) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Snapshot returns the collection with its loading and error state, read atomically.
func (s *Store[E, C, U]) Snapshot() State[E] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]E, len(s.items))
	copy(items, s.items)
	return State[E]{Items: items, Loading: s.inflight > 0, Err: s.lastErr}
}

// Subscribe returns a channel that receives a value whenever the store state
// changes. Notifications coalesce; readers should re-read the state. The
// returned func unsubscribes and closes the channel.
func (s *Store[E, C, U]) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// passThrough runs a read that tracks loading and error state but never
// changes the collection.
func (s *Store[E, C, U]) passThrough(ctx context.Context, op string, fn func(context.Context) error) error {
	_, start := s.begin()
	err := s.call(ctx, op, fn)
	s.finish(op, start, err, nil)
	return err
}

func (s *Store[E, C, U]) begin() (uint64, time.Time) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.inflight++
	s.metrics.setLoading(s.name, true)
	s.notifyLocked()
	s.mu.Unlock()
	return seq, time.Now()
}

// finish records the outcome of an operation. apply runs under the write
// lock only when err is nil.
func (s *Store[E, C, U]) finish(op string, start time.Time, err error, apply func()) {
	s.mu.Lock()
	s.inflight--
	if err != nil {
		s.lastErr = err.Error()
	} else {
		s.lastErr = ""
		if apply != nil {
			apply()
		}
	}
	// gauges are set under the lock so they follow the order of operations
	s.metrics.setSize(s.name, len(s.items))
	s.metrics.setLoading(s.name, s.inflight > 0)
	s.notifyLocked()
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("operation failed", "op", op, "error", err)
	}
	s.metrics.observe(s.name, op, err, time.Since(start))
}

// call invokes fn with the configured timeout and converts a panic from the
// remote into an error.
func (s *Store[E, C, U]) call(ctx context.Context, op string, fn func(context.Context) error) (err error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s %s: unexpected failure: %v", s.name, op, r)
		}
	}()
	return fn(ctx)
}

func (s *Store[E, C, U]) notifyLocked() {
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Store[E, C, U]) index(id uint) int {
	for i, e := range s.items {
		if e.GetID() == id {
			return i
		}
	}
	return -1
}

func (s *Store[E, C, U]) upsert(e E) {
	if i := s.index(e.GetID()); i >= 0 {
		s.items[i] = e
		return
	}
	s.items = append(s.items, e)
}

func (s *Store[E, C, U]) remove(id uint) {
	if i := s.index(id); i >= 0 {
		s.items = append(s.items[:i:i], s.items[i+1:]...)
	}
}

func (s *Store[E, C, U]) reapply(id uint, m mark[E]) {
	if m.deleted {
		s.remove(id)
		return
	}
	s.upsert(m.entity)
}

// dedupe keeps the first occurrence of every id, preserving order.
func dedupe[E Entity](in []E) []E {
	seen := make(map[uint]struct{}, len(in))
	out := make([]E, 0, len(in))
	for _, e := range in {
		if _, ok := seen[e.GetID()]; ok {
			continue
		}
		seen[e.GetID()] = struct{}{}
		out = append(out, e)
	}
	return out
}
