package usersink_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-memento/pkg/activity"
	"github.com/goliatone/go-memento/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsSnapshotEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	createdAt := now.Add(-time.Minute)
	actorID := uuid.New()
	userID := uuid.New()
	tenantID := uuid.New()

	event := activity.BuildSnapshotRestoredEvent(activity.SnapshotEventInput{
		ActorID:        actorID.String(),
		UserID:         userID.String(),
		TenantID:       tenantID.String(),
		HistoryID:      "hist-1",
		Channel:        "memento",
		DefinitionCode: "memento:restore",
		Recipients:     []string{"recipient@example.com"},
		Snapshot:       activity.SnapshotContext{ID: "snap-1", Label: "abc", CreatedAt: createdAt},
		Depth:          1,
		OccurredAt:     now,
	})

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID || record.UserID != userID || record.TenantID != tenantID {
		t.Fatalf("unexpected identity mapping: %+v", record)
	}
	if record.Verb != activity.VerbSnapshotRestored || record.ObjectType != activity.ObjectTypeSnapshot || record.ObjectID != "snap-1" {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != "memento" {
		t.Fatalf("expected channel memento got %q", record.Channel)
	}
	if !record.OccurredAt.Equal(now) {
		t.Fatalf("expected occurred_at %v got %v", now, record.OccurredAt)
	}
	if record.Data["definition_code"] != "memento:restore" {
		t.Fatalf("expected definition_code metadata got %v", record.Data["definition_code"])
	}
	if record.Data["history_id"] != "hist-1" || record.Data["snapshot_label"] != "abc" {
		t.Fatalf("expected snapshot metadata passthrough got %v", record.Data)
	}
	if record.Data["snapshot_created_at"] != createdAt.Format(time.RFC3339Nano) {
		t.Fatalf("expected created_at rendered as RFC3339, got %v", record.Data["snapshot_created_at"])
	}
	recipients, ok := record.Data["recipients"].([]string)
	if !ok || len(recipients) != 1 || recipients[0] != "recipient@example.com" {
		t.Fatalf("expected recipients metadata got %v", record.Data["recipients"])
	}
}

func TestHookNotifyInvalidIDsBecomeNil(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	err := hook.Notify(context.Background(), activity.Event{
		Verb:       activity.VerbSnapshotCaptured,
		ActorID:    "not-a-uuid",
		ObjectType: activity.ObjectTypeSnapshot,
		ObjectID:   "snap-2",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if sink.records[0].ActorID != uuid.Nil {
		t.Fatalf("expected nil actor id, got %s", sink.records[0].ActorID)
	}
	if sink.records[0].OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be defaulted")
	}
}

func TestHookStrictRejectsInvalidIDs(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink, Strict: true}

	err := hook.Notify(context.Background(), activity.Event{
		Verb:       activity.VerbSnapshotCaptured,
		TenantID:   "tenant-a",
		ObjectType: activity.ObjectTypeSnapshot,
		ObjectID:   "snap-3",
	})
	if err == nil {
		t.Fatalf("expected invalid tenant id rejected")
	}
	if len(sink.records) != 0 {
		t.Fatalf("expected nothing logged, got %d", len(sink.records))
	}

	if err := hook.Notify(context.Background(), activity.Event{
		Verb:       activity.VerbSnapshotCaptured,
		ObjectType: activity.ObjectTypeSnapshot,
		ObjectID:   "snap-4",
	}); err != nil {
		t.Fatalf("expected empty ids accepted, got %v", err)
	}
}

func TestHookNotifySkipsUnroutableEvents(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	_ = hook.Notify(context.Background(), activity.Event{})

	if len(sink.records) != 0 {
		t.Fatalf("expected no records for empty event, got %d", len(sink.records))
	}
}

func TestHookNotifyPropagatesSinkError(t *testing.T) {
	boom := errors.New("sink down")
	hook := usersink.Hook{Sink: &recordingSink{err: boom}}

	err := hook.Notify(context.Background(), activity.BuildHistoryExhaustedEvent(activity.SnapshotEventInput{HistoryID: "hist-2"}))
	if !errors.Is(err, boom) {
		t.Fatalf("expected sink error, got %v", err)
	}

	if err := (usersink.Hook{}).Notify(context.Background(), activity.Event{Verb: "x", ObjectType: "y", ObjectID: "z"}); err != nil {
		t.Fatalf("expected nil sink to be a no-op, got %v", err)
	}
}
