package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/syslogsitsolutions/menulogs/internal/adapter/logger"
	"github.com/syslogsitsolutions/menulogs/internal/domain"
	"github.com/syslogsitsolutions/menulogs/internal/interfaces"
)

// Service is the order lifecycle engine: the only writer of order,
// item and table state, and the only producer of timeline entries.
// Events are emitted after the owning transaction commits, never
// before.
type Service struct {
	orders    interfaces.OrderStore
	tables    interfaces.TableStore
	locations interfaces.LocationStore
	publisher interfaces.EventPublisher
	notifier  interfaces.NotificationSink
	logger    logger.Logger
	taxRate   decimal.Decimal
	now       func() time.Time
}

func NewService(
	orders interfaces.OrderStore,
	tables interfaces.TableStore,
	locations interfaces.LocationStore,
	publisher interfaces.EventPublisher,
	notifier interfaces.NotificationSink,
	lgr logger.Logger,
	taxRate decimal.Decimal,
) *Service {
	return &Service{
		orders:    orders,
		tables:    tables,
		locations: locations,
		publisher: publisher,
		notifier:  notifier,
		logger:    lgr,
		taxRate:   taxRate,
		now:       time.Now,
	}
}

// authorizeOrder gates staff commands on an existing order: the
// creator always qualifies, anyone else needs location access. An
// order outside the caller's reach reads as absent, not forbidden.
func (s *Service) authorizeOrder(ctx context.Context, order *domain.Order, actor domain.Identity) error {
	if actor.UserID == order.CreatedBy {
		return nil
	}
	ok, err := s.locations.HasLocationAccess(ctx, actor.UserID, order.LocationID)
	if err != nil {
		return domain.WrapError(domain.KindTransientInfra, err, "could not verify location access")
	}
	if !ok {
		return domain.NewError(domain.KindNotFound, "order %s not found", order.ID)
	}
	return nil
}

func (s *Service) authorizeLocation(ctx context.Context, locationID uuid.UUID, actor domain.Identity) error {
	ok, err := s.locations.HasLocationAccess(ctx, actor.UserID, locationID)
	if err != nil {
		return domain.WrapError(domain.KindTransientInfra, err, "could not verify location access")
	}
	if !ok {
		return domain.NewError(domain.KindAuthorization, "no access to location %s", locationID)
	}
	return nil
}

func (s *Service) CreateOrder(ctx context.Context, cmd interfaces.CreateOrderCommand, actor domain.Identity) (*domain.Order, error) {
	now := s.now()

	order := &domain.Order{
		ID:            uuid.New(),
		LocationID:    cmd.LocationID,
		Type:          cmd.Type,
		Status:        domain.OrderPending,
		TableID:       cmd.TableID,
		CustomerName:  cmd.CustomerName,
		CustomerPhone: cmd.CustomerPhone,
		Discount:      cmd.Discount,
		Tip:           cmd.Tip,
		PaymentStatus: domain.PaymentUnpaid,
		CreatedBy:     actor.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if cmd.Confirmed {
		order.Status = domain.OrderConfirmed
		t := now
		order.ConfirmedAt = &t
	}
	for _, ic := range cmd.Items {
		order.Items = append(order.Items, newItem(order.ID, ic, now))
	}

	if err := order.Validate(); err != nil {
		s.logger.Error("order_validation_failed", "Order validation failed", "", nil, err)
		return nil, err
	}
	order.RecomputeTotals(s.taxRate)

	number, err := s.orders.NextOrderNumber(ctx, cmd.LocationID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate order number: %w", err)
	}
	order.Number = number

	// Dine-in creation occupies the table unconditionally; a table
	// already occupied stays occupied (last writer wins).
	var tableChange *interfaces.TableChange
	var table *domain.Table
	if order.Type == domain.OrderTypeDineIn && order.TableID != nil {
		table, err = s.tables.Find(ctx, *order.TableID)
		if err != nil {
			return nil, err
		}
		if table.LocationID != order.LocationID {
			return nil, domain.NewError(domain.KindValidation,
				"table %s belongs to another location", table.ID)
		}
		tableChange = &interfaces.TableChange{
			TableID:   table.ID,
			OldStatus: table.Status,
			NewStatus: domain.TableOccupied,
		}
	}

	entry := domain.NewTimelineEntry(order.ID, "created",
		fmt.Sprintf("Order #%d created", order.Number), actor, now)

	if err := s.orders.Create(ctx, order, entry, tableChange); err != nil {
		s.logger.Error("order_create_failed", "Failed to create order", "", nil, err)
		return nil, err
	}

	s.logger.Info("order_created", fmt.Sprintf("Order #%d created", order.Number), "", map[string]interface{}{
		"order_id":    order.ID.String(),
		"location_id": order.LocationID.String(),
		"status":      string(order.Status),
	})

	s.publisher.Publish(ctx, domain.NewEvent(order.LocationID, &order.ID, now, domain.OrderCreatedPayload{
		OrderID:      order.ID,
		Number:       order.Number,
		Type:         order.Type,
		Status:       order.Status,
		TableID:      order.TableID,
		CustomerName: order.CustomerName,
		Total:        order.Total,
		CreatedBy:    order.CreatedBy,
	}))
	if tableChange != nil && tableChange.OldStatus != tableChange.NewStatus {
		s.publishTableChange(ctx, order.LocationID, table, tableChange, now)
	}
	s.notify(order, "order_created", fmt.Sprintf("New order #%d received", order.Number))

	return order, nil
}

func (s *Service) AdvanceStatus(ctx context.Context, orderID uuid.UUID, newStatus domain.OrderStatus, actor domain.Identity) (*domain.Order, error) {
	now := s.now()

	order, err := s.orders.Find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeOrder(ctx, order, actor); err != nil {
		return nil, err
	}

	oldStatus := order.Status
	if err := order.AdvanceTo(newStatus, actor, now); err != nil {
		return nil, err
	}

	table, tableChange, err := s.tableChangeOnTerminal(ctx, order)
	if err != nil {
		return nil, err
	}

	action := "status_changed"
	description := fmt.Sprintf("Order #%d moved from %s to %s", order.Number, oldStatus, newStatus)
	if newStatus == domain.OrderCancelled {
		action = "cancelled"
		description = fmt.Sprintf("Order #%d cancelled", order.Number)
	}
	entry := domain.NewTimelineEntry(order.ID, action, description, actor, now)

	if err := s.orders.Update(ctx, order, entry, tableChange); err != nil {
		s.logger.Error("order_update_failed", "Failed to update order status", "", nil, err)
		return nil, err
	}

	s.publisher.Publish(ctx, domain.NewEvent(order.LocationID, &order.ID, now, domain.OrderStatusChangedPayload{
		OrderID:   order.ID,
		Number:    order.Number,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		ActorID:   actor.UserID,
		ActorName: actor.Name,
		CreatedBy: order.CreatedBy,
		StaffID:   actor.StaffID,
	}))
	if newStatus == domain.OrderCancelled {
		s.publisher.Publish(ctx, domain.NewEvent(order.LocationID, &order.ID, now, domain.OrderCancelledPayload{
			OrderID:   order.ID,
			Number:    order.Number,
			ActorID:   actor.UserID,
			ActorName: actor.Name,
		}))
	}
	if tableChange != nil {
		s.publishTableChange(ctx, order.LocationID, table, tableChange, now)
	}
	if newStatus == domain.OrderReady {
		s.notify(order, "order_ready", fmt.Sprintf("Order #%d is ready", order.Number))
	}

	return order, nil
}

func (s *Service) AddItem(ctx context.Context, orderID uuid.UUID, cmd interfaces.CreateOrderItemCommand, actor domain.Identity) (*domain.Order, error) {
	now := s.now()

	order, err := s.orders.Find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeOrder(ctx, order, actor); err != nil {
		return nil, err
	}
	if order.Status.Terminal() {
		return nil, domain.NewError(domain.KindInvalidTransition,
			"order is %s and cannot change items", order.Status)
	}

	item := newItem(order.ID, cmd, now)
	if err := item.Validate(); err != nil {
		return nil, err
	}
	order.Items = append(order.Items, item)
	order.RecomputeTotals(s.taxRate)
	order.RecomputePaymentStatus()
	order.UpdatedAt = now

	entry := domain.NewTimelineEntry(order.ID, "item_added",
		fmt.Sprintf("Added %dx %s", item.Quantity, item.Name), actor, now)

	if err := s.orders.AddItem(ctx, order, &order.Items[len(order.Items)-1], entry); err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, domain.NewEvent(order.LocationID, &order.ID, now, domain.OrderItemAddedPayload{
		OrderID:   order.ID,
		ItemID:    item.ID,
		Name:      item.Name,
		Quantity:  item.Quantity,
		UnitPrice: item.UnitPrice,
		LineTotal: item.LineTotal,
		Total:     order.Total,
	}))
	return order, nil
}

func (s *Service) RemoveItem(ctx context.Context, orderID, itemID uuid.UUID, actor domain.Identity) (*domain.Order, error) {
	now := s.now()

	order, err := s.orders.Find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeOrder(ctx, order, actor); err != nil {
		return nil, err
	}
	if order.Status.Terminal() {
		return nil, domain.NewError(domain.KindInvalidTransition,
			"order is %s and cannot change items", order.Status)
	}

	var removed *domain.OrderItem
	kept := order.Items[:0]
	for i := range order.Items {
		if order.Items[i].ID == itemID {
			item := order.Items[i]
			removed = &item
			continue
		}
		kept = append(kept, order.Items[i])
	}
	if removed == nil {
		return nil, domain.NewError(domain.KindNotFound, "order item %s not found", itemID)
	}
	order.Items = kept
	order.RecomputeTotals(s.taxRate)
	order.RecomputePaymentStatus()
	order.UpdatedAt = now

	entry := domain.NewTimelineEntry(order.ID, "item_removed",
		fmt.Sprintf("Removed %dx %s", removed.Quantity, removed.Name), actor, now)

	if err := s.orders.RemoveItem(ctx, order, itemID, entry); err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, domain.NewEvent(order.LocationID, &order.ID, now, domain.OrderItemStatusChangedPayload{
		OrderID:   order.ID,
		ItemID:    removed.ID,
		Name:      removed.Name,
		OldStatus: removed.Status,
		NewStatus: domain.ItemCancelled,
	}))
	return order, nil
}

func (s *Service) UpdateItemStatus(ctx context.Context, orderID, itemID uuid.UUID, newStatus domain.ItemStatus, actor domain.Identity) (*domain.Order, error) {
	now := s.now()

	order, err := s.orders.Find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeOrder(ctx, order, actor); err != nil {
		return nil, err
	}

	item := findOrderItem(order, itemID)
	oldStatus := domain.ItemPending
	if item != nil {
		oldStatus = item.Status
	}
	item, err = order.AdvanceItem(itemID, newStatus, now)
	if err != nil {
		return nil, err
	}
	if newStatus == domain.ItemCancelled {
		order.RecomputeTotals(s.taxRate)
		order.RecomputePaymentStatus()
	}
	order.UpdatedAt = now

	entry := domain.NewTimelineEntry(order.ID, "item_status_changed",
		fmt.Sprintf("%s moved from %s to %s", item.Name, oldStatus, newStatus), actor, now)

	if err := s.orders.Update(ctx, order, entry, nil); err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, domain.NewEvent(order.LocationID, &order.ID, now, domain.OrderItemStatusChangedPayload{
		OrderID:   order.ID,
		ItemID:    item.ID,
		Name:      item.Name,
		OldStatus: oldStatus,
		NewStatus: newStatus,
	}))
	return order, nil
}

func (s *Service) AddPayment(ctx context.Context, orderID uuid.UUID, cmd interfaces.AddPaymentCommand, actor domain.Identity) (*domain.Order, error) {
	now := s.now()

	order, err := s.orders.Find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeOrder(ctx, order, actor); err != nil {
		return nil, err
	}
	if cmd.Amount.Sign() <= 0 {
		return nil, domain.NewError(domain.KindValidation, "payment amount must be positive")
	}

	payment := domain.OrderPayment{
		ID:         uuid.New(),
		OrderID:    order.ID,
		Method:     cmd.Method,
		Amount:     cmd.Amount,
		Reference:  cmd.Reference,
		ReceivedBy: actor.UserID,
		CreatedAt:  now,
	}
	order.Payments = append(order.Payments, payment)
	order.RecomputePaymentStatus()
	order.UpdatedAt = now

	entry := domain.NewTimelineEntry(order.ID, "payment_added",
		fmt.Sprintf("Payment of %s received via %s", cmd.Amount.StringFixed(2), cmd.Method), actor, now)

	if err := s.orders.AddPayment(ctx, order, &payment, entry); err != nil {
		return nil, err
	}

	if order.PaymentStatus == domain.PaymentPaid {
		s.publisher.Publish(ctx, domain.NewEvent(order.LocationID, &order.ID, now, domain.OrderPaymentCompletedPayload{
			OrderID:       order.ID,
			Number:        order.Number,
			Amount:        payment.Amount,
			Method:        payment.Method,
			PaymentStatus: order.PaymentStatus,
		}))
	}
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	return s.orders.Find(ctx, orderID)
}

func (s *Service) GetTimeline(ctx context.Context, orderID uuid.UUID) ([]*domain.TimelineEntry, error) {
	if _, err := s.orders.Find(ctx, orderID); err != nil {
		return nil, err
	}
	return s.orders.Timeline(ctx, orderID)
}

// SetTableStatus is the manual table action (cleaning confirmed,
// reservations). Order-driven table writes never go through here.
func (s *Service) SetTableStatus(ctx context.Context, tableID uuid.UUID, status domain.TableStatus, actor domain.Identity) (*domain.Table, error) {
	if !status.Valid() {
		return nil, domain.NewError(domain.KindValidation, "invalid table status %q", status)
	}
	table, err := s.tables.Find(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeLocation(ctx, table.LocationID, actor); err != nil {
		return nil, err
	}
	if !table.CanManuallySet(status) {
		return nil, domain.NewError(domain.KindInvalidTransition,
			"table cannot move from %s to %s manually", table.Status, status)
	}

	oldStatus := table.Status
	if err := s.tables.SetStatus(ctx, tableID, status); err != nil {
		return nil, err
	}
	table.Status = status

	now := s.now()
	s.publisher.Publish(ctx, domain.NewEvent(table.LocationID, nil, now, domain.TableStatusChangedPayload{
		TableID:   table.ID,
		Number:    table.Number,
		OldStatus: oldStatus,
		NewStatus: status,
	}))
	return table, nil
}

func (s *Service) DeleteTable(ctx context.Context, tableID uuid.UUID, actor domain.Identity) error {
	table, err := s.tables.Find(ctx, tableID)
	if err != nil {
		return err
	}
	if err := s.authorizeLocation(ctx, table.LocationID, actor); err != nil {
		return err
	}
	count, err := s.orders.ActiveCountForTable(ctx, tableID, nil)
	if err != nil {
		return err
	}
	if count > 0 {
		return domain.NewError(domain.KindConflict,
			"table has %d active orders and cannot be deleted", count)
	}
	return s.tables.Delete(ctx, tableID)
}

func (s *Service) ListTables(ctx context.Context, locationID uuid.UUID) ([]*domain.Table, error) {
	return s.tables.ListByLocation(ctx, locationID)
}

// tableChangeOnTerminal resolves the table side effect of a terminal
// transition: when the last active order against the table ends, the
// table goes to cleaning. It never goes straight back to available;
// a human confirms the physical reset.
func (s *Service) tableChangeOnTerminal(ctx context.Context, order *domain.Order) (*domain.Table, *interfaces.TableChange, error) {
	if !order.Status.Terminal() || order.TableID == nil {
		return nil, nil, nil
	}
	count, err := s.orders.ActiveCountForTable(ctx, *order.TableID, &order.ID)
	if err != nil {
		return nil, nil, err
	}
	if count > 0 {
		return nil, nil, nil
	}
	table, err := s.tables.Find(ctx, *order.TableID)
	if err != nil {
		return nil, nil, err
	}
	return table, &interfaces.TableChange{
		TableID:   table.ID,
		OldStatus: table.Status,
		NewStatus: domain.TableCleaning,
	}, nil
}

func (s *Service) publishTableChange(ctx context.Context, locationID uuid.UUID, table *domain.Table, change *interfaces.TableChange, at time.Time) {
	s.publisher.Publish(ctx, domain.NewEvent(locationID, nil, at, domain.TableStatusChangedPayload{
		TableID:   change.TableID,
		Number:    table.Number,
		OldStatus: change.OldStatus,
		NewStatus: change.NewStatus,
	}))
}

// notify hands an owner notification to the sink without letting it
// block or fail the transition.
func (s *Service) notify(order *domain.Order, kind, message string) {
	if s.notifier == nil {
		return
	}
	n := interfaces.OwnerNotification{
		Kind:        kind,
		LocationID:  order.LocationID.String(),
		OrderID:     order.ID.String(),
		OrderNumber: order.Number,
		Message:     message,
	}
	go func() {
		if err := s.notifier.Notify(context.Background(), n); err != nil {
			s.logger.Error("notification_failed", "Failed to deliver owner notification", "", map[string]interface{}{
				"order_id": n.OrderID,
			}, err)
		}
	}()
}

func newItem(orderID uuid.UUID, cmd interfaces.CreateOrderItemCommand, at time.Time) domain.OrderItem {
	qty := decimal.NewFromInt(int64(cmd.Quantity))
	return domain.OrderItem{
		ID:         uuid.New(),
		OrderID:    orderID,
		MenuItemID: cmd.MenuItemID,
		Name:       cmd.Name,
		Quantity:   cmd.Quantity,
		UnitPrice:  cmd.UnitPrice,
		LineTotal:  cmd.UnitPrice.Mul(qty),
		Notes:      cmd.Notes,
		Status:     domain.ItemPending,
		CreatedAt:  at,
	}
}

func findOrderItem(order *domain.Order, itemID uuid.UUID) *domain.OrderItem {
	for i := range order.Items {
		if order.Items[i].ID == itemID {
			return &order.Items[i]
		}
	}
	return nil
}
