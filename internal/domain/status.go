package domain

type OrderType string

const (
	OrderTypeDineIn   OrderType = "dine_in"
	OrderTypeTakeaway OrderType = "takeaway"
	OrderTypeDelivery OrderType = "delivery"
)

func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeDineIn, OrderTypeTakeaway, OrderTypeDelivery:
		return true
	}
	return false
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderServed    OrderStatus = "served"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderPreparing, OrderReady,
		OrderServed, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// ActiveOrderStatuses are the statuses that keep a table occupied.
var ActiveOrderStatuses = []OrderStatus{
	OrderPending, OrderConfirmed, OrderPreparing, OrderReady, OrderServed,
}

type ItemStatus string

const (
	ItemPending       ItemStatus = "pending"
	ItemSentToKitchen ItemStatus = "sent_to_kitchen"
	ItemPreparing     ItemStatus = "preparing"
	ItemReady         ItemStatus = "ready"
	ItemServed        ItemStatus = "served"
	ItemCancelled     ItemStatus = "cancelled"
)

func (s ItemStatus) Valid() bool {
	switch s {
	case ItemPending, ItemSentToKitchen, ItemPreparing, ItemReady,
		ItemServed, ItemCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

type TableStatus string

const (
	TableAvailable TableStatus = "available"
	TableOccupied  TableStatus = "occupied"
	TableReserved  TableStatus = "reserved"
	TableCleaning  TableStatus = "cleaning"
)

func (s TableStatus) Valid() bool {
	switch s {
	case TableAvailable, TableOccupied, TableReserved, TableCleaning:
		return true
	}
	return false
}

type Role string

const (
	RoleOwner    Role = "owner"
	RoleManager  Role = "manager"
	RoleKitchen  Role = "kitchen"
	RoleWaiter   Role = "waiter"
	RoleCustomer Role = "customer"
)

// KitchenRole reports whether the role is auto-joined to a location's
// kitchen room when joining the location.
func (r Role) KitchenRole() bool {
	return r == RoleKitchen || r == RoleManager || r == RoleOwner
}
