// Package usersink records snapshot lifecycle events through a go-users
// ActivitySink.
package usersink

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/goliatone/go-memento/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook adapts an ActivitySink to activity.Hook. Actor, user and tenant IDs
// that are not UUIDs are recorded as uuid.Nil, or rejected when Strict is set.
type Hook struct {
	Sink   usertypes.ActivitySink
	Strict bool
}

var _ activity.Hook = Hook{}

// Notify maps event into an ActivityRecord and logs it.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	event = event.Normalize()
	if !event.Routable() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	record, err := h.record(event)
	if err != nil {
		return err
	}
	return h.Sink.Log(ctx, record)
}

func (h Hook) record(event activity.Event) (usertypes.ActivityRecord, error) {
	ids := [3]uuid.UUID{}
	for i, raw := range [3]string{event.ActorID, event.UserID, event.TenantID} {
		id, err := h.parseID(raw)
		if err != nil {
			return usertypes.ActivityRecord{}, fmt.Errorf("usersink: %s %s: %w", event.Verb, event.ObjectID, err)
		}
		ids[i] = id
	}

	return usertypes.ActivityRecord{
		ActorID:    ids[0],
		UserID:     ids[1],
		TenantID:   ids[2],
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    event.Channel,
		Data:       recordData(event),
		OccurredAt: event.OccurredAt,
	}, nil
}

func (h Hook) parseID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		if h.Strict {
			return uuid.Nil, err
		}
		return uuid.Nil, nil
	}
	return id, nil
}

// recordData flattens the event extras into the record payload. Times are
// rendered as RFC 3339 so sinks that persist JSON keep full precision.
func recordData(event activity.Event) map[string]any {
	data := maps.Clone(event.Metadata)
	set := func(key string, value any) {
		if data == nil {
			data = map[string]any{}
		}
		data[key] = value
	}
	if event.DefinitionCode != "" {
		set("definition_code", event.DefinitionCode)
	}
	if len(event.Recipients) > 0 {
		set("recipients", slices.Clone(event.Recipients))
	}
	for key, value := range data {
		if ts, ok := value.(time.Time); ok {
			data[key] = ts.UTC().Format(time.RFC3339Nano)
		}
	}
	return data
}
