package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// Record is a stored entity addressable by id
type Record interface {
	RecordID() string
}

// Collection is an in-memory indexed view over one backend collection.
//
// The collection is loaded lazily on first use and written through to the
// backend on every mutation. All mutations are serialised by a single
// writer lock so concurrent read-modify-write cycles cannot lose updates;
// readers share a read lock and never block each other.
//
// Records are held in their encoded form and decoded on every read, so
// callers always receive copies they are free to modify.
type Collection[T Record] struct {
	name    string
	backend Backend
	logger  *slog.Logger
	metrics *Metrics

	mu     sync.RWMutex
	loaded bool
	raw    []json.RawMessage
	ids    []string
	index  map[string]int
}

// NewCollection creates a collection view. Nothing is read until first use.
func NewCollection[T Record](name string, backend Backend, logger *slog.Logger, metrics *Metrics) *Collection[T] {
	return &Collection[T]{
		name:    name,
		backend: backend,
		logger:  logger.With(slog.String("collection", name)),
		metrics: metrics,
	}
}

// Name returns the collection name
func (c *Collection[T]) Name() string {
	return c.name
}

// Read operations

// LoadAll returns every record in stored order. If the backend cannot be
// read the result is an empty slice together with an error wrapping
// ErrIOFailure.
func (c *Collection[T]) LoadAll(ctx context.Context) ([]T, error) {
	return c.FindAll(ctx, nil)
}

// Snapshot is LoadAll for callers that treat an unreadable collection as
// empty. The failure has already been logged by the load.
func (c *Collection[T]) Snapshot(ctx context.Context) []T {
	records, _ := c.LoadAll(ctx)
	return records
}

// Count returns the number of stored records
func (c *Collection[T]) Count(ctx context.Context) (int, error) {
	unlock, err := c.rlock(ctx)
	if err != nil {
		return 0, err
	}
	defer unlock()
	return len(c.raw), nil
}

// FindByID returns the record with the given id
func (c *Collection[T]) FindByID(ctx context.Context, id string) (T, bool, error) {
	var zero T
	unlock, err := c.rlock(ctx)
	if err != nil {
		return zero, false, err
	}
	defer unlock()

	pos, ok := c.index[id]
	if !ok {
		return zero, false, nil
	}
	rec, err := c.decode(c.raw[pos])
	if err != nil {
		return zero, false, err
	}
	return rec, true, nil
}

// FindOne returns the first record, in stored order, matching pred
func (c *Collection[T]) FindOne(ctx context.Context, pred func(T) bool) (T, bool, error) {
	var zero T
	unlock, err := c.rlock(ctx)
	if err != nil {
		return zero, false, err
	}
	defer unlock()

	for _, raw := range c.raw {
		rec, err := c.decode(raw)
		if err != nil {
			return zero, false, err
		}
		if pred(rec) {
			return rec, true, nil
		}
	}
	return zero, false, nil
}

// FindAll returns every record matching pred in stored order.
// A nil pred matches everything.
func (c *Collection[T]) FindAll(ctx context.Context, pred func(T) bool) ([]T, error) {
	unlock, err := c.rlock(ctx)
	if err != nil {
		return []T{}, err
	}
	defer unlock()

	out := make([]T, 0, len(c.raw))
	for _, raw := range c.raw {
		rec, err := c.decode(raw)
		if err != nil {
			return []T{}, err
		}
		if pred == nil || pred(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Write operations

// Insert appends rec and persists the collection
func (c *Collection[T]) Insert(ctx context.Context, rec T) error {
	unlock, err := c.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	data, err := c.encode(rec)
	if err != nil {
		return err
	}
	raw := append(slices.Clone(c.raw), data)
	ids := append(slices.Clone(c.ids), rec.RecordID())
	return c.commit(ctx, raw, ids)
}

// Update applies fn to the record with the given id and persists the
// result. If fn returns an error nothing is written. The returned bool is
// false when no record has the id.
func (c *Collection[T]) Update(ctx context.Context, id string, fn func(*T) error) (T, bool, error) {
	var zero T
	unlock, err := c.lock(ctx)
	if err != nil {
		return zero, false, err
	}
	defer unlock()

	pos, ok := c.index[id]
	if !ok {
		return zero, false, nil
	}
	rec, err := c.decode(c.raw[pos])
	if err != nil {
		return zero, false, err
	}
	if err := fn(&rec); err != nil {
		return zero, true, err
	}
	data, err := c.encode(rec)
	if err != nil {
		return zero, true, err
	}

	raw := slices.Clone(c.raw)
	raw[pos] = data
	if err := c.commit(ctx, raw, c.ids); err != nil {
		return zero, true, err
	}
	return rec, true, nil
}

// Delete removes the record with the given id. The returned bool reports
// whether a record was removed.
func (c *Collection[T]) Delete(ctx context.Context, id string) (bool, error) {
	unlock, err := c.lock(ctx)
	if err != nil {
		return false, err
	}
	defer unlock()

	pos, ok := c.index[id]
	if !ok {
		return false, nil
	}
	raw := slices.Delete(slices.Clone(c.raw), pos, pos+1)
	ids := slices.Delete(slices.Clone(c.ids), pos, pos+1)
	if err := c.commit(ctx, raw, ids); err != nil {
		return false, err
	}
	return true, nil
}

// Mutate runs fn over the whole collection under the writer lock and
// persists what it returns. Returning an error from fn aborts without
// writing. Uniqueness checks that must not race with inserts go here.
func (c *Collection[T]) Mutate(ctx context.Context, fn func([]T) ([]T, error)) error {
	unlock, err := c.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	current := make([]T, 0, len(c.raw))
	for _, raw := range c.raw {
		rec, err := c.decode(raw)
		if err != nil {
			return err
		}
		current = append(current, rec)
	}

	next, err := fn(current)
	if err != nil {
		return err
	}
	return c.replaceLocked(ctx, next)
}

// Persist replaces the whole collection with records. It does not need
// the previous contents, so it also succeeds over an unreadable backend.
func (c *Collection[T]) Persist(ctx context.Context, records []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.replaceLocked(ctx, records)
}

// Reload drops the cached state so the next access reads the backend again
func (c *Collection[T]) Reload() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
	c.raw = nil
	c.ids = nil
	c.index = nil
}

// Internals

func (c *Collection[T]) rlock(ctx context.Context) (func(), error) {
	c.mu.RLock()
	if c.loaded {
		return c.mu.RUnlock, nil
	}
	c.mu.RUnlock()
	return c.lock(ctx)
}

func (c *Collection[T]) lock(ctx context.Context) (func(), error) {
	c.mu.Lock()
	if err := c.loadLocked(ctx); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	return c.mu.Unlock, nil
}

// loadLocked reads the backend once. A failed load is not cached, so a
// later call retries and mutations are refused until a load succeeds.
func (c *Collection[T]) loadLocked(ctx context.Context) error {
	if c.loaded {
		return nil
	}

	raw, err := c.backend.Load(ctx, c.name)
	var ids []string
	if err == nil {
		ids, err = c.idsOf(raw)
	}
	c.metrics.observe(c.name, "load", err)
	if err != nil {
		c.logger.Warn("collection unreadable, treating as empty",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("load %s: %w: %w", c.name, ErrIOFailure, err)
	}

	c.setLocked(raw, ids)
	c.loaded = true
	return nil
}

func (c *Collection[T]) replaceLocked(ctx context.Context, records []T) error {
	raw := make([]json.RawMessage, 0, len(records))
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		data, err := c.encode(rec)
		if err != nil {
			return err
		}
		raw = append(raw, data)
		ids = append(ids, rec.RecordID())
	}
	if err := c.commit(ctx, raw, ids); err != nil {
		return err
	}
	c.loaded = true
	return nil
}

// commit writes raw to the backend and, only on success, makes it the
// cached state.
func (c *Collection[T]) commit(ctx context.Context, raw []json.RawMessage, ids []string) error {
	start := time.Now()
	err := c.backend.Persist(ctx, c.name, raw)
	c.metrics.observePersist(c.name, start)
	c.metrics.observe(c.name, "persist", err)
	if err != nil {
		c.logger.Error("failed to persist collection",
			slog.Int("records", len(raw)),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("persist %s: %w: %w", c.name, ErrIOFailure, err)
	}
	c.setLocked(raw, ids)
	return nil
}

func (c *Collection[T]) setLocked(raw []json.RawMessage, ids []string) {
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		// First occurrence wins, matching FindOne order
		if _, ok := index[id]; !ok {
			index[id] = i
		}
	}
	c.raw = raw
	c.ids = ids
	c.index = index
	c.metrics.setRecords(c.name, len(raw))
}

func (c *Collection[T]) idsOf(raw []json.RawMessage) ([]string, error) {
	ids := make([]string, len(raw))
	for i, data := range raw {
		rec, err := c.decode(data)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		ids[i] = rec.RecordID()
	}
	return ids, nil
}

func (c *Collection[T]) decode(data json.RawMessage) (T, error) {
	var rec T
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("decode %s record: %w", c.name, err)
	}
	return rec, nil
}

func (c *Collection[T]) encode(rec T) (json.RawMessage, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode %s record: %w", c.name, err)
	}
	return data, nil
}
