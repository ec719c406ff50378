package history

import (
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/google/uuid"

	memento "github.com/goliatone/go-memento"
)

// Memento is the view History has of a snapshot: metadata and nothing else.
type Memento interface {
	Metadata() memento.Meta
}

// Originator produces snapshots of its own state and adopts them back.
// *memento.Owner[T] satisfies Originator[*memento.Snapshot[T]].
type Originator[M Memento] interface {
	Save() M
	Restore(M) error
}

// History is the ordered keeper of one originator's snapshots, newest last.
// It is safe for concurrent use: Backup and Undo are serialized, so two Undo
// calls never pop the same snapshot.
type History[M Memento] struct {
	mu         sync.Mutex
	id         string
	originator Originator[M]
	stack      []M
	cfg        config
}

// New binds a History to originator for its whole lifetime. It panics when
// originator is nil.
func New[M Memento](originator Originator[M], opts ...Option) *History[M] {
	if originator == nil {
		panic("history: originator is required")
	}
	cfg := applyOptions(opts)
	id := ""
	if cfg.newID != nil {
		id = cfg.newID()
	}
	if id == "" {
		id = uuid.NewString()
	}
	return &History[M]{
		id:         id,
		originator: originator,
		cfg:        cfg,
	}
}

// ForOwner binds a History to a memento.Owner.
func ForOwner[T any](owner *memento.Owner[T], opts ...Option) *History[*memento.Snapshot[T]] {
	if owner == nil {
		panic("history: originator is required")
	}
	return New[*memento.Snapshot[T]](owner, opts...)
}

// ID returns the history identifier carried by its events.
func (h *History[M]) ID() string {
	return h.id
}

// Backup appends a new snapshot of the originator's current state.
func (h *History[M]) Backup() {
	start := h.cfg.now()

	h.mu.Lock()
	snapshot := h.originator.Save()
	h.stack = append(h.stack, snapshot)
	var evicted []memento.Meta
	if h.cfg.capacity > 0 {
		for len(h.stack) > h.cfg.capacity {
			evicted = append(evicted, h.stack[0].Metadata())
			var zero M
			h.stack[0] = zero
			h.stack = h.stack[1:]
		}
	}
	depth := len(h.stack)
	h.mu.Unlock()

	if len(h.cfg.observers) == 0 {
		return
	}
	end := h.cfg.now()
	for _, meta := range evicted {
		h.notify(Event{Op: OpBackup, Outcome: OutcomeEvicted, Meta: meta, Depth: depth, At: end})
	}
	h.notify(Event{
		Op:       OpBackup,
		Outcome:  OutcomeCaptured,
		Meta:     snapshot.Metadata(),
		Depth:    depth,
		Duration: end.Sub(start),
		At:       end,
	})
}

// Undo restores the newest snapshot the originator accepts. Snapshots are
// popped whether or not they restore; a *memento.RestoreError moves on to the
// next older snapshot, and ErrNoHistory is returned once none are left. Any
// other restore error stops the loop and is returned wrapped.
func (h *History[M]) Undo() error {
	start := h.cfg.now()
	var events []Event

	h.mu.Lock()
	var result error = ErrNoHistory
	outcome := OutcomeEmpty
	var last memento.Meta
	skipped := 0
	for len(h.stack) > 0 {
		snapshot := h.pop()
		meta := snapshot.Metadata()
		err := h.originator.Restore(snapshot)
		if err == nil {
			result, outcome, last = nil, OutcomeRestored, meta
			break
		}
		if memento.IsRestoreError(err) {
			skipped++
			events = append(events, Event{Op: OpUndo, Outcome: OutcomeSkipped, Meta: meta, Skipped: skipped, Err: err})
			continue
		}
		result = fmt.Errorf("history: restore %s: %w", meta.ID, err)
		outcome, last = OutcomeFailed, meta
		break
	}
	depth := len(h.stack)
	h.mu.Unlock()

	if len(h.cfg.observers) == 0 {
		return result
	}
	end := h.cfg.now()
	for _, event := range events {
		event.Depth = depth
		event.At = end
		h.notify(event)
	}
	final := Event{
		Op:       OpUndo,
		Outcome:  outcome,
		Meta:     last,
		Depth:    depth,
		Skipped:  skipped,
		Duration: end.Sub(start),
		At:       end,
	}
	if outcome == OutcomeFailed {
		final.Err = result
	}
	h.notify(final)
	return result
}

// pop removes the newest snapshot. Callers hold h.mu and check the length.
func (h *History[M]) pop() M {
	last := len(h.stack) - 1
	snapshot := h.stack[last]
	var zero M
	h.stack[last] = zero
	h.stack = h.stack[:last]
	return snapshot
}

// ListHistory returns the metadata of every stacked snapshot, oldest first,
// as of the call. Later backups or undos are not reflected and the sequence
// can be ranged over any number of times.
func (h *History[M]) ListHistory() iter.Seq[memento.Meta] {
	h.mu.Lock()
	metas := make([]memento.Meta, len(h.stack))
	for i, snapshot := range h.stack {
		metas[i] = snapshot.Metadata()
	}
	h.mu.Unlock()
	return slices.Values(metas)
}

// Peek returns the metadata of the newest snapshot.
func (h *History[M]) Peek() (memento.Meta, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.stack) == 0 {
		return memento.Meta{}, false
	}
	return h.stack[len(h.stack)-1].Metadata(), true
}

// Len returns the number of stacked snapshots.
func (h *History[M]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.stack)
}

func (h *History[M]) notify(event Event) {
	event.HistoryID = h.id
	h.cfg.observers.Observe(event)
}
