package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/syslogsitsolutions/menulogs/internal/domain"
)

// TableChange is an optional table-status side effect applied inside
// the same transaction as the order mutation that caused it.
type TableChange struct {
	TableID   uuid.UUID
	OldStatus domain.TableStatus
	NewStatus domain.TableStatus
}

// OrderStore owns persisted orders, items, payments and the timeline.
// Every mutating method is one transaction: the order row, its items,
// the timeline entry and the optional table change commit together or
// not at all.
type OrderStore interface {
	// NextOrderNumber atomically allocates the next number for the
	// location's calendar day. Concurrent callers for the same
	// (location, day) must receive distinct consecutive numbers.
	NextOrderNumber(ctx context.Context, locationID uuid.UUID, day time.Time) (int, error)

	Create(ctx context.Context, order *domain.Order, entry *domain.TimelineEntry, table *TableChange) error
	Find(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	Update(ctx context.Context, order *domain.Order, entry *domain.TimelineEntry, table *TableChange) error

	AddItem(ctx context.Context, order *domain.Order, item *domain.OrderItem, entry *domain.TimelineEntry) error
	RemoveItem(ctx context.Context, order *domain.Order, itemID uuid.UUID, entry *domain.TimelineEntry) error
	AddPayment(ctx context.Context, order *domain.Order, payment *domain.OrderPayment, entry *domain.TimelineEntry) error

	// ActiveCountForTable counts orders in an active status that
	// reference the table, excluding excludeOrderID when non-nil.
	ActiveCountForTable(ctx context.Context, tableID uuid.UUID, excludeOrderID *uuid.UUID) (int, error)

	Timeline(ctx context.Context, orderID uuid.UUID) ([]*domain.TimelineEntry, error)
}

// TableStore owns persisted tables. Status writes happen only on
// behalf of the lifecycle engine; see domain.Table.
type TableStore interface {
	Find(ctx context.Context, id uuid.UUID) (*domain.Table, error)
	ListByLocation(ctx context.Context, locationID uuid.UUID) ([]*domain.Table, error)
	SetStatus(ctx context.Context, tableID uuid.UUID, status domain.TableStatus) error
	Delete(ctx context.Context, tableID uuid.UUID) error
}

// LocationStore is the identity-side collaborator consulted for every
// room-join command.
type LocationStore interface {
	// HasLocationAccess reports whether the user owns the business
	// behind the location or holds a staff record for it.
	HasLocationAccess(ctx context.Context, userID, locationID uuid.UUID) (bool, error)
}
