package memento

import (
	"fmt"
	"time"
)

// NameLayout is the timestamp layout used by Meta.Name.
const NameLayout = "2006-01-02 15:04:05"

// Meta is the only part of a Snapshot visible outside the Owner that
// captured it. It is diagnostic: nothing orders or restores by it.
type Meta struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Label     string    `json:"label"`
}

// Name renders the snapshot as "<created at> / (<label>)".
func (m Meta) Name() string {
	return fmt.Sprintf("%s / (%s)", m.CreatedAt.Format(NameLayout), m.Label)
}

// Snapshot is an immutable capture of an Owner's state. Its payload is
// unexported and only the capturing Owner can read it back through Restore.
type Snapshot[T any] struct {
	payload T
	meta    Meta
	origin  *identity
}

// identity is compared by pointer; every Owner allocates its own.
type identity struct {
	id string
}

// Metadata returns the snapshot's id, creation time and label. It never
// touches the payload.
func (s *Snapshot[T]) Metadata() Meta {
	if s == nil {
		return Meta{}
	}
	return s.meta
}

func (s *Snapshot[T]) String() string {
	return s.Metadata().Name()
}

// extract hands out a fresh copy of the payload to the capturing owner.
// Any other owner reaching this point is a bug, not a recoverable condition.
func (s *Snapshot[T]) extract(o *Owner[T]) T {
	if s.origin != o.identity {
		panic(&AccessViolation{OwnerID: o.identity.id, SnapshotID: s.meta.ID})
	}
	return o.copy(s.payload)
}

func (s *Snapshot[T]) capturedBy(o *Owner[T]) bool {
	return s != nil && s.origin == o.identity
}
