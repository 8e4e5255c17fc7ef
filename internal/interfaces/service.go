package interfaces

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/syslogsitsolutions/menulogs/internal/domain"
)

// Commands accepted by the lifecycle engine.

type CreateOrderCommand struct {
	LocationID    uuid.UUID
	Type          domain.OrderType
	TableID       *uuid.UUID
	CustomerName  string
	CustomerPhone string
	// Confirmed starts the order at CONFIRMED (staff flow); otherwise
	// it starts at PENDING awaiting explicit confirmation.
	Confirmed bool
	Discount  decimal.Decimal
	Tip       decimal.Decimal
	Items     []CreateOrderItemCommand
}

type CreateOrderItemCommand struct {
	MenuItemID uuid.UUID
	Name       string
	Quantity   int
	UnitPrice  decimal.Decimal
	Notes      string
}

type AddPaymentCommand struct {
	Method    string
	Amount    decimal.Decimal
	Reference string
}

// OrderLifecycle is the engine governing order, item and table state.
type OrderLifecycle interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand, actor domain.Identity) (*domain.Order, error)
	AdvanceStatus(ctx context.Context, orderID uuid.UUID, newStatus domain.OrderStatus, actor domain.Identity) (*domain.Order, error)
	AddItem(ctx context.Context, orderID uuid.UUID, cmd CreateOrderItemCommand, actor domain.Identity) (*domain.Order, error)
	RemoveItem(ctx context.Context, orderID, itemID uuid.UUID, actor domain.Identity) (*domain.Order, error)
	UpdateItemStatus(ctx context.Context, orderID, itemID uuid.UUID, newStatus domain.ItemStatus, actor domain.Identity) (*domain.Order, error)
	AddPayment(ctx context.Context, orderID uuid.UUID, cmd AddPaymentCommand, actor domain.Identity) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	GetTimeline(ctx context.Context, orderID uuid.UUID) ([]*domain.TimelineEntry, error)

	SetTableStatus(ctx context.Context, tableID uuid.UUID, status domain.TableStatus, actor domain.Identity) (*domain.Table, error)
	DeleteTable(ctx context.Context, tableID uuid.UUID, actor domain.Identity) error
	ListTables(ctx context.Context, locationID uuid.UUID) ([]*domain.Table, error)
}
