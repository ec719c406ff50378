package history

import (
	"context"

	"github.com/goliatone/go-memento/pkg/activity"
)

// ActivityContext carries the actor and routing fields stamped on every
// activity event an ActivityObserver emits.
type ActivityContext struct {
	ActorID  string
	UserID   string
	TenantID string
	Channel  string
	Metadata map[string]any
	// OnError receives emitter failures. Errors are dropped when nil.
	OnError func(error)
}

// ActivityObserver translates history events into activity events.
type ActivityObserver struct {
	emitter *activity.Emitter
	ctx     ActivityContext
}

// NewActivityObserver returns an observer that emits through emitter.
func NewActivityObserver(emitter *activity.Emitter, ctx ActivityContext) *ActivityObserver {
	return &ActivityObserver{emitter: emitter, ctx: ctx}
}

// Observe implements Observer.
func (o *ActivityObserver) Observe(event Event) {
	if o == nil || !o.emitter.Enabled() {
		return
	}
	built, ok := o.build(event)
	if !ok {
		return
	}
	if err := o.emitter.Emit(context.Background(), built); err != nil && o.ctx.OnError != nil {
		o.ctx.OnError(err)
	}
}

func (o *ActivityObserver) build(event Event) (activity.Event, bool) {
	input := activity.SnapshotEventInput{
		ActorID:   o.ctx.ActorID,
		UserID:    o.ctx.UserID,
		TenantID:  o.ctx.TenantID,
		HistoryID: event.HistoryID,
		Channel:   o.ctx.Channel,
		Metadata:  o.ctx.Metadata,
		Snapshot: activity.SnapshotContext{
			ID:        event.Meta.ID,
			Label:     event.Meta.Label,
			CreatedAt: event.Meta.CreatedAt,
		},
		Depth:      event.Depth,
		OccurredAt: event.At,
	}
	if event.Err != nil {
		input.Reason = event.Err.Error()
	}

	switch event.Outcome {
	case OutcomeCaptured:
		return activity.BuildSnapshotCapturedEvent(input), true
	case OutcomeEvicted:
		return activity.BuildSnapshotEvictedEvent(input), true
	case OutcomeRestored:
		return activity.BuildSnapshotRestoredEvent(input), true
	case OutcomeSkipped:
		return activity.BuildSnapshotSkippedEvent(input), true
	case OutcomeFailed:
		return activity.BuildSnapshotRestoreFailedEvent(input), true
	case OutcomeEmpty:
		return activity.BuildHistoryExhaustedEvent(input), true
	default:
		return activity.Event{}, false
	}
}
