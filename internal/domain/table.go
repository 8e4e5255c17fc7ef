package domain

import (
	"time"

	"github.com/google/uuid"
)

// Table is a physical location resource. Its status is derived from
// order state: only the lifecycle package writes it, through the two
// coupling transitions (occupy on dine-in creation, cleaning when the
// last active order ends) and the explicit manual reset below.
type Table struct {
	ID         uuid.UUID
	LocationID uuid.UUID
	Number     int
	Name       string
	Capacity   int
	Status     TableStatus
	SortOrder  int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// manualTableTransitions are the only status writes a human may make
// directly; everything else is a side effect of order lifecycle.
var manualTableTransitions = map[TableStatus][]TableStatus{
	TableCleaning:  {TableAvailable},
	TableAvailable: {TableReserved},
	TableReserved:  {TableAvailable},
}

// CanManuallySet reports whether a staff-initiated status change is
// permitted from the table's current status.
func (t *Table) CanManuallySet(newStatus TableStatus) bool {
	for _, s := range manualTableTransitions[t.Status] {
		if s == newStatus {
			return true
		}
	}
	return false
}
