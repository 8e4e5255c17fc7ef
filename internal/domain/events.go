package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventKind tags the realtime events emitted to connected clients.
// Every kind carries exactly one payload type; producers and
// consumers share the schema so payloads cannot drift.
type EventKind string

const (
	EventOrderCreated           EventKind = "order:created"
	EventOrderStatusChanged     EventKind = "order:status-changed"
	EventOrderItemStatusChanged EventKind = "order-item:status-changed"
	EventOrderItemAdded         EventKind = "order:item-added"
	EventOrderCancelled         EventKind = "order:cancelled"
	EventOrderPaymentCompleted  EventKind = "order:payment-completed"
	EventTableStatusChanged     EventKind = "table:status-changed"
	EventStaffClockIn           EventKind = "staff:clock-in"
	EventStaffClockOut          EventKind = "staff:clock-out"
	EventKitchenAlert           EventKind = "kitchen:alert"
	EventNotification           EventKind = "notification"

	// Connection-management acks, delivered directly to a single
	// connection and never routed through rooms or the broker.
	EventJoinedLocation EventKind = "joined-location"
	EventJoinedKitchen  EventKind = "joined-kitchen"
	EventError          EventKind = "error"
)

// EventPayload is implemented by exactly one struct per event kind.
type EventPayload interface {
	EventKind() EventKind
}

// Event is one realtime event addressed at a location's audience.
type Event struct {
	Kind       EventKind
	LocationID uuid.UUID
	OrderID    *uuid.UUID
	OccurredAt time.Time
	Payload    EventPayload
}

func NewEvent(locationID uuid.UUID, orderID *uuid.UUID, at time.Time, payload EventPayload) Event {
	return Event{
		Kind:       payload.EventKind(),
		LocationID: locationID,
		OrderID:    orderID,
		OccurredAt: at,
		Payload:    payload,
	}
}

type OrderCreatedPayload struct {
	OrderID      uuid.UUID       `json:"order_id"`
	Number       int             `json:"order_number"`
	Type         OrderType       `json:"order_type"`
	Status       OrderStatus     `json:"status"`
	TableID      *uuid.UUID      `json:"table_id,omitempty"`
	CustomerName string          `json:"customer_name,omitempty"`
	Total        decimal.Decimal `json:"total"`
	CreatedBy    uuid.UUID       `json:"created_by"`
}

func (OrderCreatedPayload) EventKind() EventKind { return EventOrderCreated }

type OrderStatusChangedPayload struct {
	OrderID   uuid.UUID   `json:"order_id"`
	Number    int         `json:"order_number"`
	OldStatus OrderStatus `json:"old_status"`
	NewStatus OrderStatus `json:"new_status"`
	ActorID   uuid.UUID   `json:"actor_id"`
	ActorName string      `json:"actor_name"`
	CreatedBy uuid.UUID   `json:"created_by"`
	StaffID   *uuid.UUID  `json:"staff_id,omitempty"`
}

func (OrderStatusChangedPayload) EventKind() EventKind { return EventOrderStatusChanged }

type OrderItemStatusChangedPayload struct {
	OrderID   uuid.UUID  `json:"order_id"`
	ItemID    uuid.UUID  `json:"item_id"`
	Name      string     `json:"name"`
	OldStatus ItemStatus `json:"old_status"`
	NewStatus ItemStatus `json:"new_status"`
}

func (OrderItemStatusChangedPayload) EventKind() EventKind { return EventOrderItemStatusChanged }

type OrderItemAddedPayload struct {
	OrderID   uuid.UUID       `json:"order_id"`
	ItemID    uuid.UUID       `json:"item_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
	Total     decimal.Decimal `json:"order_total"`
}

func (OrderItemAddedPayload) EventKind() EventKind { return EventOrderItemAdded }

type OrderCancelledPayload struct {
	OrderID   uuid.UUID `json:"order_id"`
	Number    int       `json:"order_number"`
	ActorID   uuid.UUID `json:"actor_id"`
	ActorName string    `json:"actor_name"`
}

func (OrderCancelledPayload) EventKind() EventKind { return EventOrderCancelled }

type OrderPaymentCompletedPayload struct {
	OrderID       uuid.UUID       `json:"order_id"`
	Number        int             `json:"order_number"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
}

func (OrderPaymentCompletedPayload) EventKind() EventKind { return EventOrderPaymentCompleted }

type TableStatusChangedPayload struct {
	TableID   uuid.UUID   `json:"table_id"`
	Number    int         `json:"table_number"`
	OldStatus TableStatus `json:"old_status"`
	NewStatus TableStatus `json:"new_status"`
}

func (TableStatusChangedPayload) EventKind() EventKind { return EventTableStatusChanged }

type StaffClockPayload struct {
	In      bool      `json:"-"`
	UserID  uuid.UUID `json:"user_id"`
	StaffID uuid.UUID `json:"staff_id"`
	Name    string    `json:"name"`
}

func (p StaffClockPayload) EventKind() EventKind {
	if p.In {
		return EventStaffClockIn
	}
	return EventStaffClockOut
}

type KitchenAlertPayload struct {
	Message string     `json:"message"`
	OrderID *uuid.UUID `json:"order_id,omitempty"`
}

func (KitchenAlertPayload) EventKind() EventKind { return EventKitchenAlert }

type NotificationPayload struct {
	UserID uuid.UUID `json:"user_id"`
	Title  string    `json:"title"`
	Body   string    `json:"body"`
}

func (NotificationPayload) EventKind() EventKind { return EventNotification }

type JoinedRoomPayload struct {
	Kitchen    bool      `json:"-"`
	LocationID uuid.UUID `json:"location_id"`
	Room       string    `json:"room"`
}

func (p JoinedRoomPayload) EventKind() EventKind {
	if p.Kitchen {
		return EventJoinedKitchen
	}
	return EventJoinedLocation
}

type ErrorPayload struct {
	Code    Kind   `json:"code"`
	Message string `json:"message"`
}

func (ErrorPayload) EventKind() EventKind { return EventError }

type eventEnvelope struct {
	Event      EventKind       `json:"event"`
	LocationID uuid.UUID       `json:"location_id"`
	OrderID    *uuid.UUID      `json:"order_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(eventEnvelope{
		Event:      e.Kind,
		LocationID: e.LocationID,
		OrderID:    e.OrderID,
		OccurredAt: e.OccurredAt,
		Data:       data,
	})
}

func (e *Event) UnmarshalJSON(raw []byte) error {
	var env eventEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return err
	}
	payload, err := decodePayload(env.Event, env.Data)
	if err != nil {
		return err
	}
	e.Kind = env.Event
	e.LocationID = env.LocationID
	e.OrderID = env.OrderID
	e.OccurredAt = env.OccurredAt
	e.Payload = payload
	return nil
}

// decodePayload instantiates the payload type for the kind and
// returns it by value, so locally produced and broker-decoded events
// carry the same concrete types.
func decodePayload(kind EventKind, data json.RawMessage) (EventPayload, error) {
	decode := func(into EventPayload, out func() EventPayload) (EventPayload, error) {
		if err := json.Unmarshal(data, into); err != nil {
			return nil, err
		}
		return out(), nil
	}

	switch kind {
	case EventOrderCreated:
		var p OrderCreatedPayload
		return decode(&p, func() EventPayload { return p })
	case EventOrderStatusChanged:
		var p OrderStatusChangedPayload
		return decode(&p, func() EventPayload { return p })
	case EventOrderItemStatusChanged:
		var p OrderItemStatusChangedPayload
		return decode(&p, func() EventPayload { return p })
	case EventOrderItemAdded:
		var p OrderItemAddedPayload
		return decode(&p, func() EventPayload { return p })
	case EventOrderCancelled:
		var p OrderCancelledPayload
		return decode(&p, func() EventPayload { return p })
	case EventOrderPaymentCompleted:
		var p OrderPaymentCompletedPayload
		return decode(&p, func() EventPayload { return p })
	case EventTableStatusChanged:
		var p TableStatusChangedPayload
		return decode(&p, func() EventPayload { return p })
	case EventStaffClockIn:
		p := StaffClockPayload{In: true}
		return decode(&p, func() EventPayload { return p })
	case EventStaffClockOut:
		var p StaffClockPayload
		return decode(&p, func() EventPayload { return p })
	case EventKitchenAlert:
		var p KitchenAlertPayload
		return decode(&p, func() EventPayload { return p })
	case EventNotification:
		var p NotificationPayload
		return decode(&p, func() EventPayload { return p })
	case EventJoinedLocation:
		var p JoinedRoomPayload
		return decode(&p, func() EventPayload { return p })
	case EventJoinedKitchen:
		p := JoinedRoomPayload{Kitchen: true}
		return decode(&p, func() EventPayload { return p })
	case EventError:
		var p ErrorPayload
		return decode(&p, func() EventPayload { return p })
	default:
		return nil, NewError(KindValidation, "unknown event kind %q", kind)
	}
}
