package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/syslogsitsolutions/menulogs/internal/interfaces"
)

// Notifier publishes owner-facing notifications to a fanout exchange.
// Downstream consumers (email, push) subscribe with their own queues;
// this side only fires and forgets.
type Notifier struct {
	conn     Connection
	exchange string
}

func NewNotifier(conn Connection, exchange string) *Notifier {
	return &Notifier{conn: conn, exchange: exchange}
}

func (n *Notifier) Notify(ctx context.Context, notification interfaces.OwnerNotification) error {
	ch, err := n.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(n.exchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	body, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	err = ch.Publish(n.exchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

var _ interfaces.NotificationSink = (*Notifier)(nil)
