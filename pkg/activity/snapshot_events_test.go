package activity

import (
	"context"
	"testing"
	"time"
)

func TestBuildSnapshotRestoredEventCarriesMetadataOnly(t *testing.T) {
	createdAt := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	meta := map[string]any{"custom": "value"}
	input := SnapshotEventInput{
		ActorID:   " actor ",
		UserID:    " user ",
		TenantID:  " tenant ",
		HistoryID: " hist-1 ",
		Metadata:  meta,
		Snapshot: SnapshotContext{
			ID:        "snap-1",
			Label:     "Super-dup...",
			CreatedAt: createdAt,
		},
		Depth:          2,
		DefinitionCode: "memento:restore",
		Recipients:     []string{"ops@example.com"},
		Channel:        "memento",
	}

	event := BuildSnapshotRestoredEvent(input)

	if event.Verb != VerbSnapshotRestored {
		t.Fatalf("expected verb %s got %s", VerbSnapshotRestored, event.Verb)
	}
	if event.ObjectType != ObjectTypeSnapshot || event.ObjectID != "snap-1" {
		t.Fatalf("unexpected object fields: %+v", event)
	}
	if event.ActorID != "actor" || event.UserID != "user" || event.TenantID != "tenant" {
		t.Fatalf("unexpected identity fields: %+v", event)
	}
	if event.Metadata["history_id"] != "hist-1" || event.Metadata["depth"] != 2 {
		t.Fatalf("expected history metadata, got %+v", event.Metadata)
	}
	if event.Metadata["snapshot_label"] != "Super-dup..." || event.Metadata["snapshot_created_at"] != createdAt {
		t.Fatalf("expected snapshot metadata, got %+v", event.Metadata)
	}
	if event.Metadata["custom"] != "value" {
		t.Fatalf("expected custom metadata preserved, got %+v", event.Metadata)
	}
	event.Metadata["custom"] = "changed"
	if meta["custom"] != "value" {
		t.Fatalf("expected input metadata untouched")
	}
	if len(event.Recipients) != 1 || event.Recipients[0] != "ops@example.com" {
		t.Fatalf("expected recipients preserved, got %v", event.Recipients)
	}
}

func TestBuildHistoryExhaustedEventUsesHistoryID(t *testing.T) {
	event := BuildHistoryExhaustedEvent(SnapshotEventInput{HistoryID: "hist-7"})
	if event.ObjectType != ObjectTypeHistory || event.ObjectID != "hist-7" {
		t.Fatalf("unexpected object fields: %+v", event)
	}

	fallback := BuildHistoryExhaustedEvent(SnapshotEventInput{})
	if fallback.ObjectID != ObjectTypeHistory {
		t.Fatalf("expected object type fallback, got %q", fallback.ObjectID)
	}
}

func TestBuildSnapshotSkippedEventRecordsReason(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true})

	event := BuildSnapshotSkippedEvent(SnapshotEventInput{
		Snapshot: SnapshotContext{ID: "snap-2"},
		Reason:   "memento: restore incompatible",
	})
	if err := emitter.Emit(context.Background(), event); err != nil {
		t.Fatalf("emit: %v", err)
	}
	events := capture.Events()
	if len(events) != 1 {
		t.Fatalf("expected one captured event, got %d", len(events))
	}
	got := events[0]
	if got.Verb != VerbSnapshotSkipped || got.Metadata["reason"] != "memento: restore incompatible" {
		t.Fatalf("unexpected event: %+v", got)
	}
	if got.Channel != DefaultChannel {
		t.Fatalf("expected default channel, got %q", got.Channel)
	}
}
