package memento

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-memento/internal/clone"
)

// Mutator transforms an Owner's state in place. Returning an error discards
// the transformation.
type Mutator[T any] func(*T) error

// Owner holds a single live state value and is the only component able to
// capture it into snapshots and read those snapshots back.
type Owner[T any] struct {
	mu        sync.RWMutex
	restoreMu sync.Mutex
	state     T
	identity  *identity
	lastStamp time.Time
	cfg       ownerConfig
}

// NewOwner constructs an Owner whose live state is a copy of initial.
func NewOwner[T any](initial T, opts ...Option) *Owner[T] {
	cfg := applyOptions(opts)
	o := &Owner[T]{
		identity: &identity{id: uuid.NewString()},
		cfg:      cfg,
	}
	o.resolveGuardEvaluator()
	o.state = o.copy(initial)
	return o
}

// ID returns the owner's identifier.
func (o *Owner[T]) ID() string {
	return o.identity.id
}

// State returns a copy of the live state.
func (o *Owner[T]) State() T {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.copy(o.state)
}

// Set replaces the live state wholesale.
func (o *Owner[T]) Set(state T) {
	next := o.copy(state)
	o.mu.Lock()
	o.state = next
	o.mu.Unlock()
}

// Mutate applies fn to a copy of the live state and adopts the result only
// when fn succeeds, so a failing mutator never leaves state half written.
func (o *Owner[T]) Mutate(fn Mutator[T]) error {
	if fn == nil {
		return ErrMutatorRequired
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	next := o.copy(o.state)
	if err := fn(&next); err != nil {
		return err
	}
	o.state = next
	return nil
}

// Save captures the live state into a new snapshot. It never changes the
// live state.
func (o *Owner[T]) Save() *Snapshot[T] {
	o.mu.Lock()
	defer o.mu.Unlock()
	payload := o.copy(o.state)
	return &Snapshot[T]{
		payload: payload,
		origin:  o.identity,
		meta: Meta{
			ID:        o.cfg.newID(),
			CreatedAt: o.stamp(),
			Label:     deriveLabel(payload, o.cfg.labelLength),
		},
	}
}

// Restore replaces the live state with the snapshot's payload. It fails with
// a *RestoreError, leaving the live state untouched, when the snapshot was
// captured by another owner, when the restore guard rejects it, or when the
// payload's own Validate method fails.
//
// Guards and Validate run without the state lock held, so guard functions
// may read the owner. Concurrent restores are serialised.
func (o *Owner[T]) Restore(s *Snapshot[T]) error {
	if !s.capturedBy(o) {
		return newRestoreError(RestoreIncompatible, s.Metadata().ID, nil)
	}
	o.restoreMu.Lock()
	defer o.restoreMu.Unlock()

	candidate := s.extract(o)
	if err := o.checkGuard(candidate, s.meta); err != nil {
		return newRestoreError(RestoreRejected, s.meta.ID, err)
	}
	if err := validateValue(candidate); err != nil {
		return newRestoreError(RestoreInvalid, s.meta.ID, err)
	}
	o.mu.Lock()
	o.state = candidate
	o.mu.Unlock()
	return nil
}

// stamp returns the snapshot time, never earlier than the previous one even
// if the clock steps backwards. Callers hold o.mu.
func (o *Owner[T]) stamp() time.Time {
	now := o.cfg.now()
	if now.Before(o.lastStamp) {
		now = o.lastStamp
	}
	o.lastStamp = now
	return now
}

func (o *Owner[T]) copy(value T) T {
	if c, ok := any(value).(interface{ Clone() T }); ok {
		return c.Clone()
	}
	return clone.Value(value)
}
