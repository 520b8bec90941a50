package operations

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"

	"github.com/appetiteclub/tableside/pkg/event"
)

// OrderEventsSubscriber refreshes the other sessions when a waiter saves an
// order, so every device sees the new table status before the next poll.
type OrderEventsSubscriber struct {
	subscriber events.Subscriber
	store      *SessionStore
	logger     apt.Logger
}

func NewOrderEventsSubscriber(sub events.Subscriber, store *SessionStore, logger apt.Logger) *OrderEventsSubscriber {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &OrderEventsSubscriber{
		subscriber: sub,
		store:      store,
		logger:     logger,
	}
}

func (s *OrderEventsSubscriber) Start(ctx context.Context) error {
	s.logger.Info("starting order events subscriber", "topic", event.OrdersSubmittedTopic)
	if s.subscriber == nil {
		return fmt.Errorf("order events subscriber not configured")
	}
	return s.subscriber.Subscribe(ctx, event.OrdersSubmittedTopic, s.handleEvent)
}

func (s *OrderEventsSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var evt event.OrderSubmittedEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		s.logger.Info("invalid order submitted event", "error", err)
		return nil
	}
	if s.store == nil {
		return nil
	}

	for _, session := range s.store.All() {
		if session.ID == evt.SessionID {
			continue
		}
		if err := session.RefreshRemote(ctx, evt.TableID); err != nil {
			s.logger.Debug("remote refresh failed", "session_id", session.ID, "error", err)
		}
	}
	s.logger.Debug("order event applied", "order_id", evt.OrderID, "table_id", evt.TableID)
	return nil
}
