package operations

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"

	"github.com/appetiteclub/tableside/pkg/event"
	"github.com/appetiteclub/tableside/pkg/pos"
)

func TestPollerPoll(t *testing.T) {
	store := NewSessionStore(time.Hour)
	defer store.Close()

	healthy := NewMockPOS()
	broken := NewMockPOS()
	broken.ListTablesFunc = func(ctx context.Context) ([]pos.Table, error) {
		return nil, errors.New("unreachable")
	}

	for id, api := range map[string]*MockPOS{"a": healthy, "b": broken} {
		if err := store.Save(NewSession(id, waiterPrincipal(id), api, SessionOptions{}, nil)); err != nil {
			t.Fatalf("Save(%s) error = %v", id, err)
		}
	}

	p := NewPoller(store, time.Minute, nil)
	if got := p.Poll(context.Background()); got != 1 {
		t.Errorf("Poll() = %d, want 1", got)
	}
	if healthy.OpenOrderCalls.Load() != 1 {
		t.Errorf("healthy session open order calls = %d, want 1", healthy.OpenOrderCalls.Load())
	}
}

func TestPollerStartStop(t *testing.T) {
	store := NewSessionStore(time.Hour)
	defer store.Close()

	api := NewMockPOS()
	if err := store.Save(NewSession("a", waiterPrincipal("ana"), api, SessionOptions{}, nil)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	p := NewPoller(store, 10*time.Millisecond, nil)
	ctx := context.Background()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := p.Start(ctx); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for api.OpenOrderCalls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if api.OpenOrderCalls.Load() == 0 {
		t.Fatal("poller should refresh the session")
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
}

func TestNewPollerDefaults(t *testing.T) {
	p := NewPoller(nil, 0, nil)
	if p.interval != DefaultPollInterval {
		t.Errorf("interval = %s, want %s", p.interval, DefaultPollInterval)
	}
	if p.logger == nil {
		t.Error("should set noop logger when nil")
	}
	if got := p.Poll(context.Background()); got != 0 {
		t.Errorf("Poll() without store = %d, want 0", got)
	}
}

func TestOrderEventsSubscriberStart(t *testing.T) {
	t.Run("withoutSubscriber", func(t *testing.T) {
		s := NewOrderEventsSubscriber(nil, nil, nil)
		if err := s.Start(context.Background()); err == nil {
			t.Error("Start() should fail without a subscriber")
		}
	})

	t.Run("subscribesToTopic", func(t *testing.T) {
		sub := NewMockSubscriber()
		var topic string
		sub.SubscribeFunc = func(ctx context.Context, tp string, handler events.HandlerFunc) error {
			topic = tp
			return nil
		}
		s := NewOrderEventsSubscriber(sub, nil, nil)
		if err := s.Start(context.Background()); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		if topic != event.OrdersSubmittedTopic {
			t.Errorf("topic = %q, want %q", topic, event.OrdersSubmittedTopic)
		}
	})
}

func TestOrderEventsSubscriberHandleEvent(t *testing.T) {
	store := NewSessionStore(time.Hour)
	defer store.Close()

	origin := NewMockPOS()
	other := NewMockPOS()
	if err := store.Save(NewSession("origin", waiterPrincipal("ana"), origin, SessionOptions{}, nil)); err != nil {
		t.Fatalf("Save(origin) error = %v", err)
	}
	if err := store.Save(NewSession("other", waiterPrincipal("luis"), other, SessionOptions{}, nil)); err != nil {
		t.Fatalf("Save(other) error = %v", err)
	}

	s := NewOrderEventsSubscriber(NewMockSubscriber(), store, nil)

	msg, err := json.Marshal(event.OrderSubmittedEvent{
		EventType: event.EventOrderCreated,
		SessionID: "origin",
		OrderID:   500,
		TableID:   1,
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := s.handleEvent(context.Background(), msg); err != nil {
		t.Fatalf("handleEvent() error = %v", err)
	}

	if origin.OpenOrderCalls.Load() != 0 {
		t.Error("originating session should not be refreshed")
	}
	if other.OpenOrderCalls.Load() != 1 {
		t.Errorf("other session open order calls = %d, want 1", other.OpenOrderCalls.Load())
	}

	if err := s.handleEvent(context.Background(), []byte("{not json")); err != nil {
		t.Errorf("handleEvent() with invalid payload error = %v, want nil", err)
	}
}

func TestAuditLoggerLogSubmit(t *testing.T) {
	a := NewAuditLogger(nil)

	rec := SubmitRecord{SessionID: "s-1", Actor: "ana", TableID: 1, OrderID: 500, Items: 2, Created: true}
	created := a.LogSubmit(context.Background(), rec, nil)
	if created.Action != ActionCreateOrder || !created.Success {
		t.Errorf("Action = %q, want create-order", created.Action)
	}
	if created.ID == uuid.Nil || created.At.IsZero() {
		t.Error("Log() should fill id and timestamp")
	}

	var payload map[string]int
	if err := json.Unmarshal(created.Payload, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload["order_id"] != 500 || payload["items"] != 2 || payload["table_id"] != 1 {
		t.Errorf("payload = %v", payload)
	}

	rec.Created = false
	updated := a.LogSubmit(context.Background(), rec, errors.New("rejected"))
	if updated.Action != ActionUpdateOrder || updated.Success || updated.Error != "rejected" {
		t.Errorf("entry = %+v, want failed update-order", updated)
	}
}
