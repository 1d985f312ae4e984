package syncer

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// MutationError reports a remote insert/update/delete rejected by the
// store. The optimistic local change is kept either way; the error
// exists so callers can log or alert, never to trigger a rollback.
type MutationError struct {
	Op  string
	ID  int64
	Err error
}

func (e MutationError) Error() string {
	return fmt.Sprintf("remote %s for id %d: %v", e.Op, e.ID, e.Err)
}

func (e MutationError) Unwrap() error { return e.Err }

// Collection keeps a local, immediately-mutable set of records in sync
// with a Remote store. Local mutations apply synchronously in call
// order; the matching remote calls run in the background and are
// reconciled by identity when they complete, never by position.
//
// The collection and the store may disagree while calls are in flight.
// They converge once everything resolves, except that a failed remote
// mutation leaves the optimistic local change in place (reported, not
// rolled back).
type Collection[T Record[T]] struct {
	remote  Remote[T]
	onError func(MutationError)

	mu      sync.Mutex
	items   []T
	pending map[int64]*pendingCreate

	wg sync.WaitGroup
}

// pendingCreate tracks an insert that has not been acknowledged yet.
// removed flips when the record is deleted locally before the ack, so
// the reconciliation knows not to bring it back.
type pendingCreate struct {
	removed bool
}

type Option[T Record[T]] func(*Collection[T])

// WithErrorHandler replaces the default log-based reporting of remote
// mutation failures.
func WithErrorHandler[T Record[T]](fn func(MutationError)) Option[T] {
	return func(c *Collection[T]) { c.onError = fn }
}

func NewCollection[T Record[T]](remote Remote[T], opts ...Option[T]) *Collection[T] {
	c := &Collection[T]{
		remote:  remote,
		pending: make(map[int64]*pendingCreate),
		onError: func(e MutationError) { log.Printf("[syncer] %v", e) },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Items returns a snapshot of the local collection.
func (c *Collection[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Collection[T]) Get(id int64) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexLocked(id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

func (c *Collection[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Create inserts draft locally under a fresh temporary id and submits
// the remote insert in the background. When the store acknowledges,
// the temporary record is replaced by the authoritative one. On
// failure the optimistic record stays; the failure is reported.
func (c *Collection[T]) Create(ctx context.Context, draft T) T {
	rec := draft.WithRecordID(NextTempID())

	c.mu.Lock()
	c.items = append(c.items, rec)
	c.pending[rec.RecordID()] = &pendingCreate{}
	c.mu.Unlock()

	c.wg.Add(1)
	go c.submitInsert(ctx, rec)
	return rec
}

func (c *Collection[T]) submitInsert(ctx context.Context, rec T) {
	defer c.wg.Done()

	tempID := rec.RecordID()
	stored, err := c.remote.Insert(ctx, rec)

	c.mu.Lock()
	p := c.pending[tempID]
	delete(c.pending, tempID)

	if err != nil {
		c.mu.Unlock()
		c.onError(MutationError{Op: "insert", ID: tempID, Err: err})
		return
	}

	if p != nil && p.removed {
		// deleted locally while the insert was in flight: the record
		// must not resurrect, and the row the store just created is
		// cleaned up best-effort
		c.mu.Unlock()
		if derr := c.remote.Delete(ctx, stored.RecordID()); derr != nil {
			c.onError(MutationError{Op: "delete", ID: stored.RecordID(), Err: derr})
		}
		return
	}

	// A refresh may have replaced the collection wholesale while this
	// insert was pending; in that case the temp record is gone and the
	// stored one shows up on the next refresh (last-collection-wins).
	if i := c.indexLocked(tempID); i >= 0 {
		c.items[i] = stored
	}
	c.mu.Unlock()
}

// Remove deletes the record locally right away. For reconciled records
// the remote delete runs in the background; for a still-pending create
// the delete is deferred until the insert acks, and for a temporary id
// that never reached the store there is nothing to delete remotely.
func (c *Collection[T]) Remove(ctx context.Context, id int64) {
	c.mu.Lock()
	if i := c.indexLocked(id); i >= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
	}
	if p, ok := c.pending[id]; ok {
		p.removed = true
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	if IsTempID(id) {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.remote.Delete(ctx, id); err != nil {
			c.onError(MutationError{Op: "delete", ID: id, Err: err})
		}
	}()
}

// UpdateField patches one field on the local record and submits the
// partial update in the background. Returns false when the record is
// absent or the field is not editable.
func (c *Collection[T]) UpdateField(ctx context.Context, id int64, field, value string) bool {
	c.mu.Lock()
	i := c.indexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return false
	}
	updated, ok := c.items[i].WithField(field, value)
	if !ok {
		c.mu.Unlock()
		return false
	}
	c.items[i] = updated
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.remote.Update(ctx, id, map[string]any{field: value}); err != nil {
			c.onError(MutationError{Op: "update", ID: id, Err: err})
		}
	}()
	return true
}

// Refresh replaces the whole local collection with a filtered remote
// select. This is the only operation that overwrites optimistic state
// wholesale: a create still in flight when Refresh runs loses its
// local record until the next refresh picks up the stored row. Callers
// switch sections only when the collection is quiescent.
func (c *Collection[T]) Refresh(ctx context.Context, filter map[string]string) ([]T, error) {
	records, err := c.remote.Select(ctx, filter)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.items = make([]T, len(records))
	copy(c.items, records)
	c.mu.Unlock()

	return records, nil
}

// Wait blocks until every submitted remote call has resolved. Used by
// the CLI before exiting and by tests.
func (c *Collection[T]) Wait() {
	c.wg.Wait()
}

func (c *Collection[T]) indexLocked(id int64) int {
	for i := range c.items {
		if c.items[i].RecordID() == id {
			return i
		}
	}
	return -1
}
