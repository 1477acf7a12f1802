package shop

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/emporia/emporia/internal/core/pubsub"
	"github.com/emporia/emporia/internal/core/storage/types"
)

// OrderEvent is published on every order status change as orders.<status>.
type OrderEvent struct {
	OrderID        string    `json:"orderId"`
	User           string    `json:"user"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previousStatus,omitempty"`
	TotalPrice     float64   `json:"totalPrice"`
	Items          int       `json:"items"`
	At             time.Time `json:"at"`
}

// OrderSubject returns the subject an order event with status is published on.
func OrderSubject(status string) string {
	return "orders." + status
}

type eventSink struct {
	pub    pubsub.Publisher
	logger *slog.Logger
}

// publish is best effort; a lost event never fails the request.
func (e eventSink) publish(ctx context.Context, o *types.Order, previous string) {
	if e.pub == nil {
		return
	}
	data, err := json.Marshal(OrderEvent{
		OrderID:        o.ID.Hex(),
		User:           o.User.Hex(),
		Status:         o.OrderStatus,
		PreviousStatus: previous,
		TotalPrice:     o.TotalPrice,
		Items:          len(o.OrderItems),
		At:             time.Now().UTC(),
	})
	if err != nil {
		e.logger.Warn("Failed to encode order event", "order_id", o.ID.Hex(), "error", err)
		return
	}
	if err := e.pub.Publish(context.WithoutCancel(ctx), OrderSubject(o.OrderStatus), data); err != nil {
		e.logger.Warn("Failed to publish order event", "order_id", o.ID.Hex(), "status", o.OrderStatus, "error", err)
	}
}
