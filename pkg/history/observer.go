package history

import (
	"time"

	memento "github.com/goliatone/go-memento"
)

// Op names the history operation an Event belongs to.
type Op string

const (
	OpBackup Op = "backup"
	OpUndo   Op = "undo"
)

// Outcome describes what happened to the snapshot an Event refers to.
type Outcome string

const (
	OutcomeCaptured Outcome = "captured"
	OutcomeEvicted  Outcome = "evicted"
	OutcomeRestored Outcome = "restored"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeEmpty    Outcome = "empty"
	OutcomeFailed   Outcome = "failed"
)

// Event reports one backup or undo outcome. Meta is zero for OutcomeEmpty.
// Depth is the stack size once the operation completed. Skipped counts the
// snapshots an undo discarded before reaching this outcome.
type Event struct {
	HistoryID string
	Op        Op
	Outcome   Outcome
	Meta      memento.Meta
	Depth     int
	Skipped   int
	Err       error
	Duration  time.Duration
	At        time.Time
}

// Observer receives history events. Observers run after the history lock is
// released and must not block for long.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe implements Observer.
func (f ObserverFunc) Observe(event Event) {
	if f != nil {
		f(event)
	}
}

// Observers fans events out to zero or more observers.
type Observers []Observer

// Observe implements Observer.
func (o Observers) Observe(event Event) {
	for _, observer := range o {
		if observer != nil {
			observer.Observe(event)
		}
	}
}
