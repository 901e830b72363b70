package events

import (
	"context"
	"errors"
	"testing"
)

func TestPublishRunsEveryHandler(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()
	calls := 0
	failure := errors.New("boom")

	dispatcher.Subscribe(EventAccessRequestCreated, func(context.Context, Event) error {
		calls++
		return failure
	})
	dispatcher.Subscribe(EventAccessRequestCreated, func(context.Context, Event) error {
		calls++
		return nil
	})
	dispatcher.Subscribe(EventOverrideUpdated, func(context.Context, Event) error {
		t.Fatalf("handler for another event type should not run")
		return nil
	})

	err := dispatcher.Publish(context.Background(), Event{Type: EventAccessRequestCreated})
	if !errors.Is(err, failure) {
		t.Fatalf("expected first handler error, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected both handlers to run, got %d", calls)
	}
}
