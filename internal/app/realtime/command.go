package realtime

import "github.com/google/uuid"

// Command actions accepted from connections. A typed command arrives,
// is routed to its handler and answered with an ack or error event;
// there is no callback registration.
const (
	ActionJoinLocation     = "join-location"
	ActionLeaveLocation    = "leave-location"
	ActionJoinKitchen      = "join-kitchen"
	ActionLeaveKitchen     = "leave-kitchen"
	ActionOrderSubscribe   = "order:subscribe"
	ActionOrderUnsubscribe = "order:unsubscribe"
)

type Command struct {
	Action     string    `json:"action"`
	LocationID uuid.UUID `json:"location_id,omitempty"`
	OrderID    uuid.UUID `json:"order_id,omitempty"`
}
