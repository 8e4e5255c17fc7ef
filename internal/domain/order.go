package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Identity is the authenticated principal behind a command or a
// realtime connection.
type Identity struct {
	UserID  uuid.UUID
	Name    string
	Role    Role
	StaffID *uuid.UUID
}

// Order represents one customer transaction at one location.
type Order struct {
	ID            uuid.UUID
	LocationID    uuid.UUID
	Number        int
	Type          OrderType
	Status        OrderStatus
	TableID       *uuid.UUID
	CustomerName  string
	CustomerPhone string
	Items         []OrderItem
	Subtotal      decimal.Decimal
	Tax           decimal.Decimal
	Discount      decimal.Decimal
	Tip           decimal.Decimal
	Total         decimal.Decimal
	PaymentStatus PaymentStatus
	Payments      []OrderPayment

	ConfirmedAt *time.Time
	PreparingAt *time.Time
	ReadyAt     *time.Time
	ServedAt    *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time

	CreatedBy uuid.UUID
	ServedBy  *uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderItem is one line of an order. Unit price and line total are
// captured at creation time; later menu price changes never touch
// historical orders.
type OrderItem struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	Name       string
	Quantity   int
	UnitPrice  decimal.Decimal
	LineTotal  decimal.Decimal
	Notes      string
	Status     ItemStatus

	SentAt      *time.Time
	PreparingAt *time.Time
	ReadyAt     *time.Time
	ServedAt    *time.Time
	CancelledAt *time.Time
	CreatedAt   time.Time
}

// OrderPayment records money received against an order. Payments are
// the only mutation allowed after an order reaches a terminal status.
type OrderPayment struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	Method     string
	Amount     decimal.Decimal
	Reference  string
	ReceivedBy uuid.UUID
	CreatedAt  time.Time
}

// TimelineEntry is one row of the append-only order audit log.
type TimelineEntry struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	Action      string
	Description string
	ActorID     uuid.UUID
	ActorName   string
	CreatedAt   time.Time
}

func NewTimelineEntry(orderID uuid.UUID, action, description string, actor Identity, at time.Time) *TimelineEntry {
	return &TimelineEntry{
		ID:          uuid.New(),
		OrderID:     orderID,
		Action:      action,
		Description: description,
		ActorID:     actor.UserID,
		ActorName:   actor.Name,
		CreatedAt:   at,
	}
}

// Validate applies the creation-time business rules.
func (o *Order) Validate() error {
	if len(o.CustomerName) > 100 {
		return NewError(KindValidation, "customer name must not exceed 100 characters")
	}
	if !o.Type.Valid() {
		return NewError(KindValidation, "invalid order type %q", o.Type)
	}
	if o.Type == OrderTypeDineIn && o.TableID == nil {
		return NewError(KindValidation, "table is required for dine-in orders")
	}
	if len(o.Items) == 0 {
		return NewError(KindValidation, "order must contain at least 1 item")
	}
	for _, item := range o.Items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	if o.Discount.IsNegative() || o.Tip.IsNegative() {
		return NewError(KindValidation, "discount and tip must not be negative")
	}
	return nil
}

func (i *OrderItem) Validate() error {
	if i.Name == "" {
		return NewError(KindValidation, "item name is required")
	}
	if i.Quantity < 1 {
		return NewError(KindValidation, "item quantity must be at least 1")
	}
	if i.UnitPrice.IsNegative() {
		return NewError(KindValidation, "item price must not be negative")
	}
	return nil
}

// RecomputeTotals derives all monetary totals from the live item set.
// Cancelled items do not count. Totals are always recomputed from
// scratch, never adjusted incrementally.
func (o *Order) RecomputeTotals(taxRate decimal.Decimal) {
	subtotal := decimal.Zero
	for i := range o.Items {
		if o.Items[i].Status == ItemCancelled {
			continue
		}
		subtotal = subtotal.Add(o.Items[i].LineTotal)
	}
	o.Subtotal = subtotal
	o.Tax = subtotal.Mul(taxRate).Round(2)
	o.Total = o.Subtotal.Add(o.Tax).Sub(o.Discount).Add(o.Tip)
}

// AdvanceTo moves the order to newStatus and stamps the matching
// timestamp. Transitions out of a terminal status are rejected; the
// forward states are otherwise not ordered, so skipping ahead (e.g.
// pending straight to completed) is allowed. That looseness is relied
// on by existing client workflows and must not be tightened here.
func (o *Order) AdvanceTo(newStatus OrderStatus, actor Identity, at time.Time) error {
	if !newStatus.Valid() {
		return NewError(KindValidation, "invalid order status %q", newStatus)
	}
	if o.Status.Terminal() {
		return NewError(KindInvalidTransition, "order is %s and cannot change status", o.Status)
	}

	o.Status = newStatus
	o.UpdatedAt = at

	switch newStatus {
	case OrderConfirmed:
		o.stampOnce(&o.ConfirmedAt, at)
	case OrderPreparing:
		o.stampOnce(&o.PreparingAt, at)
	case OrderReady:
		o.stampOnce(&o.ReadyAt, at)
	case OrderServed:
		o.stampOnce(&o.ServedAt, at)
		o.ServedBy = &actor.UserID
	case OrderCompleted:
		o.stampOnce(&o.CompletedAt, at)
	case OrderCancelled:
		o.stampOnce(&o.CancelledAt, at)
		o.cancelItems(at)
	}
	return nil
}

func (o *Order) stampOnce(field **time.Time, at time.Time) {
	if *field == nil {
		t := at
		*field = &t
	}
}

func (o *Order) cancelItems(at time.Time) {
	for i := range o.Items {
		if o.Items[i].Status == ItemCancelled {
			continue
		}
		o.Items[i].Status = ItemCancelled
		t := at
		o.Items[i].CancelledAt = &t
	}
}

// AdvanceItem moves one item through the kitchen-display sub-machine.
// Item status is informational granularity; it never drives the
// parent order status.
func (o *Order) AdvanceItem(itemID uuid.UUID, newStatus ItemStatus, at time.Time) (*OrderItem, error) {
	if !newStatus.Valid() {
		return nil, NewError(KindValidation, "invalid item status %q", newStatus)
	}
	if o.Status.Terminal() {
		return nil, NewError(KindInvalidTransition, "order is %s and cannot change items", o.Status)
	}
	item := o.findItem(itemID)
	if item == nil {
		return nil, NewError(KindNotFound, "order item %s not found", itemID)
	}
	if item.Status == ItemCancelled {
		return nil, NewError(KindInvalidTransition, "item is cancelled and cannot change status")
	}

	item.Status = newStatus
	switch newStatus {
	case ItemSentToKitchen:
		o.stampOnce(&item.SentAt, at)
	case ItemPreparing:
		o.stampOnce(&item.PreparingAt, at)
	case ItemReady:
		o.stampOnce(&item.ReadyAt, at)
	case ItemServed:
		o.stampOnce(&item.ServedAt, at)
	case ItemCancelled:
		o.stampOnce(&item.CancelledAt, at)
	}
	return item, nil
}

func (o *Order) findItem(itemID uuid.UUID) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i]
		}
	}
	return nil
}

// RecomputePaymentStatus derives the payment status from recorded
// payments versus the current total.
func (o *Order) RecomputePaymentStatus() {
	paid := decimal.Zero
	for _, p := range o.Payments {
		paid = paid.Add(p.Amount)
	}
	switch {
	case paid.IsZero():
		o.PaymentStatus = PaymentUnpaid
	case paid.Cmp(o.Total) >= 0:
		o.PaymentStatus = PaymentPaid
	default:
		o.PaymentStatus = PaymentPartial
	}
}
