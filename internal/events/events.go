package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/FaizanFazal12/shop-backend/internal/domain"
)

const (
	TypeOrderPlaced    = "order.placed"
	TypeOrderCancelled = "order.cancelled"
)

// Envelope is the versioned wrapper around every published event.
type Envelope struct {
	EventID      string          `json:"event_id"`
	EventType    string          `json:"event_type"`
	EventVersion int             `json:"event_version"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Payload      json.RawMessage `json:"payload"`
}

// OrderEventPayload describes the order an event refers to.
type OrderEventPayload struct {
	OrderID string             `json:"order_id"`
	UserID  string             `json:"user_id"`
	Total   float64            `json:"total"`
	Lines   []domain.OrderLine `json:"lines"`
}

// Publisher emits order lifecycle events. Publication is best-effort:
// order placement and cancellation never fail because a broker is down.
type Publisher interface {
	Publish(ctx context.Context, eventType string, order *domain.Order) error
}

// NopPublisher drops events. Wired when no broker is configured and in
// tests that do not care about events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, *domain.Order) error { return nil }
