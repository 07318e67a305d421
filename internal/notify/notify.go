// Package notify publishes order events to the notification channel. All
// publishes are fire-and-forget; a dead broker never blocks an order.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/storefront-labs/fulfillment/internal/models"
)

const Topic = "order_events"

type orderEvent struct {
	Type    string  `json:"type"`
	OrderID uint    `json:"order_id"`
	Number  string  `json:"number"`
	UserID  uint    `json:"user_id"`
	Email   string  `json:"email"`
	Total   float64 `json:"total"`
	Reason  string  `json:"reason,omitempty"`
}

type KafkaNotifier struct {
	writer *kafka.Writer
}

func NewKafkaNotifier(brokers []string) *KafkaNotifier {
	if len(brokers) == 0 {
		return nil
	}
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (n *KafkaNotifier) OrderConfirmation(ctx context.Context, order *models.Order) error {
	return n.publish(ctx, orderEvent{
		Type:    "order_confirmed",
		OrderID: order.ID,
		Number:  order.Number,
		UserID:  order.UserID,
		Email:   order.UserEmail,
		Total:   order.Total,
	})
}

func (n *KafkaNotifier) PaymentFailed(ctx context.Context, order *models.Order) error {
	return n.publish(ctx, orderEvent{
		Type:    "payment_failed",
		OrderID: order.ID,
		Number:  order.Number,
		UserID:  order.UserID,
		Email:   order.UserEmail,
		Total:   order.Total,
		Reason:  order.PaymentFailureReason,
	})
}

func (n *KafkaNotifier) publish(ctx context.Context, ev orderEvent) error {
	if n == nil {
		return nil
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.Number),
		Value: data,
		Time:  time.Now().UTC(),
	})
}

func (n *KafkaNotifier) Close() error {
	if n == nil {
		return nil
	}
	return n.writer.Close()
}
