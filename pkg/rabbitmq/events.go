package rabbitmq

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	amqp "github.com/streadway/amqp"
	"go.uber.org/zap"
)

// OrderCreated is published after an order transaction commits.
type OrderCreated struct {
	OrderID   string          `json:"orderId"`
	UserID    string          `json:"userId"`
	Status    string          `json:"status"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
	CreatedAt time.Time       `json:"createdAt"`
}

// OrderStatusUpdated is published when an administrator moves an order along.
type OrderStatusUpdated struct {
	OrderID   string    `json:"orderId"`
	UserID    string    `json:"userId"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LogOrderEvents returns a consumer handler that decodes order events and logs them.
func LogOrderEvents(log *zap.Logger) func(msg amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		switch msg.RoutingKey {
		case RoutingKeyOrderCreated:
			var evt OrderCreated
			if err := json.Unmarshal(msg.Body, &evt); err != nil {
				return fmt.Errorf("failed to decode %s: %w", msg.RoutingKey, err)
			}
			log.Info("order created",
				zap.String("order_id", evt.OrderID),
				zap.String("user_id", evt.UserID),
				zap.String("total", evt.Total.StringFixed(2)),
				zap.Int("items", evt.ItemCount))
		case RoutingKeyOrderStatusUpdated:
			var evt OrderStatusUpdated
			if err := json.Unmarshal(msg.Body, &evt); err != nil {
				return fmt.Errorf("failed to decode %s: %w", msg.RoutingKey, err)
			}
			log.Info("order status updated",
				zap.String("order_id", evt.OrderID),
				zap.String("from", evt.From),
				zap.String("to", evt.To))
		default:
			log.Warn("unknown order event", zap.String("routing_key", msg.RoutingKey))
		}
		return nil
	}
}
