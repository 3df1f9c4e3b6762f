package events

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDispatcher_PublishReachesOnlyMatchingSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var created, deleted int
	d.Subscribe(EventTaskCreated, func(context.Context, Event) error {
		created++
		return nil
	})
	d.Subscribe(EventTaskDeleted, func(context.Context, Event) error {
		deleted++
		return nil
	})

	event := Event{ID: "e1", Type: EventTaskCreated, TaskID: 1, UserID: 1, Timestamp: time.Now()}
	if err := d.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if created != 1 {
		t.Errorf("created handler calls = %d, want 1", created)
	}
	if deleted != 0 {
		t.Errorf("deleted handler calls = %d, want 0", deleted)
	}
}

func TestDispatcher_FailingHandlerDoesNotStopOthers(t *testing.T) {
	d := NewInMemoryDispatcher()

	boom := errors.New("boom")
	var secondRan bool
	d.Subscribe(EventTaskUpdated, func(context.Context, Event) error { return boom })
	d.Subscribe(EventTaskUpdated, func(context.Context, Event) error {
		secondRan = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTaskUpdated})
	if !errors.Is(err, boom) {
		t.Errorf("expected joined handler error, got %v", err)
	}
	if !secondRan {
		t.Error("second handler skipped after first failed")
	}
}

func TestDispatcher_PublishWithoutSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	if err := d.Publish(context.Background(), Event{Type: EventTaskStatusChanged}); err != nil {
		t.Errorf("Publish with no subscribers: %v", err)
	}
}
