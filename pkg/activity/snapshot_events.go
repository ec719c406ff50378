package activity

import (
	"maps"
	"slices"
	"strings"
	"time"
)

// Object types carried by snapshot lifecycle events.
const (
	ObjectTypeSnapshot = "snapshot"
	ObjectTypeHistory  = "history"
)

// Verbs emitted for snapshot lifecycle events.
const (
	VerbSnapshotCaptured      = "snapshot.captured"
	VerbSnapshotRestored      = "snapshot.restored"
	VerbSnapshotSkipped       = "snapshot.skipped"
	VerbSnapshotEvicted       = "snapshot.evicted"
	VerbSnapshotRestoreFailed = "snapshot.restore_failed"
	VerbHistoryExhausted      = "history.exhausted"
)

// SnapshotContext describes the snapshot an event refers to. Only metadata is
// carried; payloads never leave the owner that captured them.
type SnapshotContext struct {
	ID        string
	Label     string
	CreatedAt time.Time
}

// SnapshotEventInput describes the common fields of snapshot lifecycle events.
type SnapshotEventInput struct {
	ActorID        string
	UserID         string
	TenantID       string
	HistoryID      string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	Snapshot       SnapshotContext
	Depth          int
	Reason         string
	OccurredAt     time.Time
}

// BuildSnapshotCapturedEvent describes a snapshot appended to a history.
func BuildSnapshotCapturedEvent(input SnapshotEventInput) Event {
	return buildSnapshotEvent(VerbSnapshotCaptured, ObjectTypeSnapshot, input)
}

// BuildSnapshotRestoredEvent describes a snapshot adopted by its owner.
func BuildSnapshotRestoredEvent(input SnapshotEventInput) Event {
	return buildSnapshotEvent(VerbSnapshotRestored, ObjectTypeSnapshot, input)
}

// BuildSnapshotSkippedEvent describes a snapshot discarded by the undo
// recovery loop because its owner refused it.
func BuildSnapshotSkippedEvent(input SnapshotEventInput) Event {
	return buildSnapshotEvent(VerbSnapshotSkipped, ObjectTypeSnapshot, input)
}

// BuildSnapshotEvictedEvent describes a snapshot dropped by a capacity bound.
func BuildSnapshotEvictedEvent(input SnapshotEventInput) Event {
	return buildSnapshotEvent(VerbSnapshotEvicted, ObjectTypeSnapshot, input)
}

// BuildSnapshotRestoreFailedEvent describes an unrecoverable restore error.
func BuildSnapshotRestoreFailedEvent(input SnapshotEventInput) Event {
	return buildSnapshotEvent(VerbSnapshotRestoreFailed, ObjectTypeSnapshot, input)
}

// BuildHistoryExhaustedEvent describes an undo that found nothing to restore.
func BuildHistoryExhaustedEvent(input SnapshotEventInput) Event {
	return buildSnapshotEvent(VerbHistoryExhausted, ObjectTypeHistory, input)
}

func buildSnapshotEvent(verb, objectType string, input SnapshotEventInput) Event {
	metadata := maps.Clone(input.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["depth"] = input.Depth
	if id := strings.TrimSpace(input.HistoryID); id != "" {
		metadata["history_id"] = id
	}
	if input.Snapshot.ID != "" {
		metadata["snapshot_id"] = input.Snapshot.ID
	}
	if input.Snapshot.Label != "" {
		metadata["snapshot_label"] = input.Snapshot.Label
	}
	if !input.Snapshot.CreatedAt.IsZero() {
		metadata["snapshot_created_at"] = input.Snapshot.CreatedAt
	}
	if input.Reason != "" {
		metadata["reason"] = input.Reason
	}

	recipients := slices.Clone(input.Recipients)

	objectID := ""
	if objectType == ObjectTypeSnapshot {
		objectID = strings.TrimSpace(input.Snapshot.ID)
	}
	if objectID == "" {
		objectID = strings.TrimSpace(input.HistoryID)
	}
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:           verb,
		ActorID:        strings.TrimSpace(input.ActorID),
		UserID:         strings.TrimSpace(input.UserID),
		TenantID:       strings.TrimSpace(input.TenantID),
		ObjectType:     objectType,
		ObjectID:       objectID,
		Channel:        strings.TrimSpace(input.Channel),
		DefinitionCode: strings.TrimSpace(input.DefinitionCode),
		Recipients:     recipients,
		Metadata:       metadata,
		OccurredAt:     input.OccurredAt,
	}
}
