package mq

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iqac-smarttrack/apiserver/config"
	"github.com/iqac-smarttrack/apiserver/types"
)

func TestOpenDisabled(t *testing.T) {
	m, err := Open(context.Background(), config.Config{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if m != nil {
		t.Fatal("expected nil broker when events are disabled")
	}
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	cfg := config.Config{Events: config.EventsConfig{Backend: "kafka"}}
	if _, err := Open(context.Background(), cfg); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestOpenRabbitMQRequiresURL(t *testing.T) {
	cfg := config.Config{Events: config.EventsConfig{Backend: BackendRabbitMQ}}
	if _, err := Open(context.Background(), cfg); err == nil {
		t.Fatal("expected error for missing rabbitmq url")
	}
}

func TestEventRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	broker := New(NewMemory())
	events := NewEventPublisher(broker, "smarttrack.events")

	sent := types.Event{
		Type:       types.EventTaskCreated,
		TaskID:     "t1",
		ActorID:    "1",
		AssigneeID: "3",
		Title:      "Prepare Annual Quality Report",
		At:         time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
	}
	if err := events.PublishEvent(ctx, sent); err != nil {
		t.Fatalf("publish: %v", err)
	}

	received := make(chan types.Event, 1)
	errDone := errors.New("done")
	err := events.SubscribeEvents(ctx, func(_ context.Context, event types.Event) error {
		received <- event
		cancel()
		return errDone
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected subscription to end with context cancellation, got %v", err)
	}

	got := <-received
	if got.Type != sent.Type || got.TaskID != "t1" || got.AssigneeID != "3" || !got.At.Equal(sent.At) {
		t.Fatalf("unexpected event %+v", got)
	}
}

type recordingAck struct {
	acks, nacks int
}

func (r *recordingAck) Ack()  { r.acks++ }
func (r *recordingAck) Nack() { r.nacks++ }

func TestSettle(t *testing.T) {
	attempt := 2
	cases := []struct {
		name    string
		attempt *int
		err     error
		acks    int
		nacks   int
	}{
		{"handled", &attempt, nil, 1, 0},
		{"failed with dead letter policy", &attempt, errors.New("boom"), 0, 1},
		{"failed without attempt tracking", nil, errors.New("boom"), 1, 0},
	}
	for _, tc := range cases {
		msg := &recordingAck{}
		settle(msg, tc.attempt, tc.err)
		if msg.acks != tc.acks || msg.nacks != tc.nacks {
			t.Fatalf("%s: got %d acks %d nacks", tc.name, msg.acks, msg.nacks)
		}
	}
}

func TestPublishAttributes(t *testing.T) {
	in := map[string]string{"type": "task.created"}
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	out := publishAttributes(in, now)
	if out["type"] != "task.created" || out[AttrContentType] != "application/json" {
		t.Fatalf("unexpected attributes: %v", out)
	}
	if out[AttrPublishedAt] != "2024-01-15T10:00:00Z" {
		t.Fatalf("unexpected published_at %q", out[AttrPublishedAt])
	}
	if len(in) != 1 {
		t.Fatalf("caller attributes were modified: %v", in)
	}
}

func TestClampAttempts(t *testing.T) {
	for in, want := range map[int]int{0: 5, 3: 5, 7: 7, 500: 100} {
		if got := clampAttempts(in); got != want {
			t.Fatalf("clampAttempts(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestOpenPubSubRequiresProject(t *testing.T) {
	cfg := config.Config{Events: config.EventsConfig{Backend: BackendPubSub}}
	if _, err := Open(context.Background(), cfg); err == nil {
		t.Fatal("expected error for missing pubsub project")
	}
}
