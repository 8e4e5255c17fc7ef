package interfaces

import (
	"context"

	"github.com/syslogsitsolutions/menulogs/internal/domain"
)

// EventPublisher is the single choke point through which the
// lifecycle engine emits realtime events. Publishing happens after
// the transaction commits and is best-effort: failures are logged by
// the implementation and never surface into lifecycle results.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event)
}

// Broker mediates cross-process fan-out. An event published on one
// instance reaches the subscribers of every other instance; the
// publishing instance fans out locally itself and must not receive
// its own messages back.
type Broker interface {
	Publish(ctx context.Context, event domain.Event) error
	// Subscribe blocks, invoking handler for every remote event,
	// until ctx is cancelled.
	Subscribe(ctx context.Context, handler func(domain.Event)) error
}

// OwnerNotification is the payload handed to the notification
// collaborator on order creation and on ready transitions.
type OwnerNotification struct {
	Kind        string `json:"kind"`
	LocationID  string `json:"location_id"`
	OrderID     string `json:"order_id"`
	OrderNumber int    `json:"order_number"`
	Message     string `json:"message"`
}

// NotificationSink forwards owner-facing notifications. It is
// fire-and-forget: it must never block or fail a lifecycle
// transition.
type NotificationSink interface {
	Notify(ctx context.Context, n OwnerNotification) error
}

// TokenVerifier validates the bearer credential presented by REST
// requests and realtime handshakes against the identity system.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (domain.Identity, error)
}
