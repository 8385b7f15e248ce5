// Package notify publishes lifecycle notifications to a topic exchange.
// Downstream consumers (mail, SMS) bind on routing keys like
// "order.reminder" or "order.waitlist_offer".
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"parkgate/internal/pkg/config"
	"parkgate/internal/pkg/errs"
	"parkgate/internal/usecase/commands"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

type message struct {
	Kind            string     `json:"kind"`
	OrderID         uuid.UUID  `json:"order_id"`
	Recipient       string     `json:"recipient"`
	ParkID          uuid.UUID  `json:"park_id"`
	VisitTime       time.Time  `json:"visit_time"`
	Visitors        int        `json:"visitors"`
	PayNowCents     int64      `json:"pay_now_cents"`
	AtEntranceCents int64      `json:"at_entrance_cents"`
	Deadline        *time.Time `json:"deadline,omitempty"`
	SentAt          time.Time  `json:"sent_at"`
}

type AMQPNotifier struct {
	conn     *amqp.Connection
	exchange string
	logger   *slog.Logger
}

// Connect dials the broker and declares the notification exchange up
// front so publishes only need a channel.
func Connect(cfg config.AMQPConfig, logger *slog.Logger) (*AMQPNotifier, func(), error) {
	conn, err := amqp.Dial(cfg.URL())
	if err != nil {
		return nil, nil, errs.Wrap(err, "failed to connect to AMQP broker")
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, errs.Wrap(err, "failed to open AMQP channel")
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, nil, errs.Wrap(err, "failed to declare notification exchange")
	}

	n := &AMQPNotifier{conn: conn, exchange: cfg.Exchange, logger: logger}
	cleanup := func() {
		if err := conn.Close(); err != nil {
			logger.Warn("failed to close AMQP connection", slog.String("error", err.Error()))
		}
	}
	return n, cleanup, nil
}

func (n *AMQPNotifier) Notify(ctx context.Context, notif commands.Notification) error {
	ch, err := n.conn.Channel()
	if err != nil {
		return errs.Wrap(err, "failed to open AMQP channel")
	}
	defer ch.Close()

	body, err := json.Marshal(message{
		Kind:            string(notif.Kind),
		OrderID:         notif.OrderID,
		Recipient:       notif.Recipient,
		ParkID:          notif.ParkID,
		VisitTime:       notif.VisitTime,
		Visitors:        notif.Visitors,
		PayNowCents:     notif.PayNowCents,
		AtEntranceCents: notif.AtEntranceCents,
		Deadline:        notif.Deadline,
		SentAt:          time.Now().UTC(),
	})
	if err != nil {
		return errs.Wrap(err, "failed to marshal notification")
	}

	routingKey := "order." + string(notif.Kind)
	err = ch.PublishWithContext(ctx, n.exchange, routingKey, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Body:         body,
	})
	if err != nil {
		return errs.Wrap(err, "failed to publish notification")
	}
	return nil
}
