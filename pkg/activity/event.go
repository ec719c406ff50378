package activity

import (
	"maps"
	"slices"
	"strings"
	"time"
)

// Event describes a snapshot lifecycle occurrence that can be fanned out to
// hooks. IDs are strings so call sites are not tied to a UUID type.
type Event struct {
	Verb           string
	ActorID        string
	UserID         string
	TenantID       string
	ObjectType     string
	ObjectID       string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	OccurredAt     time.Time
}

// Routable reports whether the event names a verb and an object; hooks drop
// events that do not.
func (e Event) Routable() bool {
	return e.Verb != "" && e.ObjectType != "" && e.ObjectID != ""
}

// Normalize returns a copy with identifiers trimmed, metadata and recipients
// detached from the original, and OccurredAt defaulted to now.
func (e Event) Normalize() Event {
	out := e
	for _, field := range []*string{
		&out.Verb, &out.ActorID, &out.UserID, &out.TenantID,
		&out.ObjectType, &out.ObjectID, &out.Channel, &out.DefinitionCode,
	} {
		*field = strings.TrimSpace(*field)
	}
	out.Metadata = nil
	if len(e.Metadata) > 0 {
		out.Metadata = maps.Clone(e.Metadata)
	}
	out.Recipients = nil
	if len(e.Recipients) > 0 {
		out.Recipients = slices.Clone(e.Recipients)
	}
	if out.OccurredAt.IsZero() {
		out.OccurredAt = time.Now()
	}
	return out
}
