package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/syslogsitsolutions/menulogs/internal/domain"
	"github.com/syslogsitsolutions/menulogs/internal/interfaces"
)

type orderStore struct {
	db DB
}

func NewOrderStore(db DB) interfaces.OrderStore {
	return &orderStore{db: db}
}

// NextOrderNumber increments the per-(location, day) counter row in a
// single upsert, so concurrent creators for the same location always
// receive distinct consecutive numbers.
func (s *orderStore) NextOrderNumber(ctx context.Context, locationID uuid.UUID, day time.Time) (int, error) {
	query := `
		INSERT INTO order_counters (location_id, day, last_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (location_id, day)
		DO UPDATE SET last_number = order_counters.last_number + 1
		RETURNING last_number
	`
	var number int
	err := s.db.QueryRow(ctx, query, locationID, day.Format("2006-01-02")).Scan(&number)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate order number: %w", err)
	}
	return number, nil
}

func (s *orderStore) Create(ctx context.Context, order *domain.Order, entry *domain.TimelineEntry, table *interfaces.TableChange) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO orders (id, location_id, order_number, order_type, status, table_id,
		                    customer_name, customer_phone, subtotal, tax, discount, tip, total,
		                    payment_status, confirmed_at, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	_, err = tx.Exec(ctx, query,
		order.ID, order.LocationID, order.Number, order.Type, order.Status, order.TableID,
		order.CustomerName, order.CustomerPhone, order.Subtotal, order.Tax, order.Discount,
		order.Tip, order.Total, order.PaymentStatus, order.ConfirmedAt, order.CreatedBy,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range order.Items {
		if err := insertItem(ctx, tx, &order.Items[i]); err != nil {
			return err
		}
	}

	if err := insertTimeline(ctx, tx, entry); err != nil {
		return err
	}
	if err := applyTableChange(ctx, tx, table, order.UpdatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *orderStore) Find(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `
		SELECT id, location_id, order_number, order_type, status, table_id,
		       customer_name, customer_phone, subtotal, tax, discount, tip, total,
		       payment_status, confirmed_at, preparing_at, ready_at, served_at,
		       completed_at, cancelled_at, created_by, served_by, created_at, updated_at
		FROM orders
		WHERE id = $1
	`
	var order domain.Order
	err := s.db.QueryRow(ctx, query, id).Scan(
		&order.ID, &order.LocationID, &order.Number, &order.Type, &order.Status, &order.TableID,
		&order.CustomerName, &order.CustomerPhone, &order.Subtotal, &order.Tax, &order.Discount,
		&order.Tip, &order.Total, &order.PaymentStatus, &order.ConfirmedAt, &order.PreparingAt,
		&order.ReadyAt, &order.ServedAt, &order.CompletedAt, &order.CancelledAt,
		&order.CreatedBy, &order.ServedBy, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewError(domain.KindNotFound, "order %s not found", id)
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	if err := s.loadItems(ctx, &order); err != nil {
		return nil, err
	}
	if err := s.loadPayments(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *orderStore) loadItems(ctx context.Context, order *domain.Order) error {
	query := `
		SELECT id, order_id, menu_item_id, name, quantity, unit_price, line_total, notes,
		       status, sent_at, preparing_at, ready_at, served_at, cancelled_at, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.db.Query(ctx, query, order.ID)
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.MenuItemID, &item.Name, &item.Quantity,
			&item.UnitPrice, &item.LineTotal, &item.Notes, &item.Status, &item.SentAt,
			&item.PreparingAt, &item.ReadyAt, &item.ServedAt, &item.CancelledAt, &item.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}

func (s *orderStore) loadPayments(ctx context.Context, order *domain.Order) error {
	query := `
		SELECT id, order_id, method, amount, reference, received_by, created_at
		FROM order_payments
		WHERE order_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.db.Query(ctx, query, order.ID)
	if err != nil {
		return fmt.Errorf("failed to load payments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.OrderPayment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Method, &p.Amount, &p.Reference, &p.ReceivedBy, &p.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan payment: %w", err)
		}
		order.Payments = append(order.Payments, p)
	}
	return rows.Err()
}

func (s *orderStore) Update(ctx context.Context, order *domain.Order, entry *domain.TimelineEntry, table *interfaces.TableChange) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := updateOrderRow(ctx, tx, order); err != nil {
		return err
	}
	for i := range order.Items {
		if err := updateItemRow(ctx, tx, &order.Items[i]); err != nil {
			return err
		}
	}
	if err := insertTimeline(ctx, tx, entry); err != nil {
		return err
	}
	if err := applyTableChange(ctx, tx, table, order.UpdatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *orderStore) AddItem(ctx context.Context, order *domain.Order, item *domain.OrderItem, entry *domain.TimelineEntry) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertItem(ctx, tx, item); err != nil {
		return err
	}
	if err := updateOrderRow(ctx, tx, order); err != nil {
		return err
	}
	if err := insertTimeline(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *orderStore) RemoveItem(ctx context.Context, order *domain.Order, itemID uuid.UUID, entry *domain.TimelineEntry) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM order_items WHERE id = $1 AND order_id = $2`, itemID, order.ID)
	if err != nil {
		return fmt.Errorf("failed to delete order item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewError(domain.KindNotFound, "order item %s not found", itemID)
	}
	if err := updateOrderRow(ctx, tx, order); err != nil {
		return err
	}
	if err := insertTimeline(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *orderStore) AddPayment(ctx context.Context, order *domain.Order, payment *domain.OrderPayment, entry *domain.TimelineEntry) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO order_payments (id, order_id, method, amount, reference, received_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = tx.Exec(ctx, query,
		payment.ID, payment.OrderID, payment.Method, payment.Amount,
		payment.Reference, payment.ReceivedBy, payment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}

	_, err = tx.Exec(ctx, `UPDATE orders SET payment_status = $1, updated_at = $2 WHERE id = $3`,
		order.PaymentStatus, order.UpdatedAt, order.ID)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	if err := insertTimeline(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *orderStore) ActiveCountForTable(ctx context.Context, tableID uuid.UUID, excludeOrderID *uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*) FROM orders
		WHERE table_id = $1
		  AND status = ANY($2)
		  AND ($3::uuid IS NULL OR id <> $3)
	`
	statuses := make([]string, len(domain.ActiveOrderStatuses))
	for i, st := range domain.ActiveOrderStatuses {
		statuses[i] = string(st)
	}

	var count int
	if err := s.db.QueryRow(ctx, query, tableID, statuses, excludeOrderID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active orders: %w", err)
	}
	return count, nil
}

func (s *orderStore) Timeline(ctx context.Context, orderID uuid.UUID) ([]*domain.TimelineEntry, error) {
	query := `
		SELECT id, order_id, action, description, actor_id, actor_name, created_at
		FROM order_timeline
		WHERE order_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load timeline: %w", err)
	}
	defer rows.Close()

	var entries []*domain.TimelineEntry
	for rows.Next() {
		var e domain.TimelineEntry
		if err := rows.Scan(&e.ID, &e.OrderID, &e.Action, &e.Description, &e.ActorID, &e.ActorName, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan timeline entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func insertItem(ctx context.Context, tx Tx, item *domain.OrderItem) error {
	query := `
		INSERT INTO order_items (id, order_id, menu_item_id, name, quantity, unit_price,
		                         line_total, notes, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := tx.Exec(ctx, query,
		item.ID, item.OrderID, item.MenuItemID, item.Name, item.Quantity,
		item.UnitPrice, item.LineTotal, item.Notes, item.Status, item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order item: %w", err)
	}
	return nil
}

func updateOrderRow(ctx context.Context, tx Tx, order *domain.Order) error {
	query := `
		UPDATE orders
		SET status = $1, subtotal = $2, tax = $3, discount = $4, tip = $5, total = $6,
		    payment_status = $7, confirmed_at = $8, preparing_at = $9, ready_at = $10,
		    served_at = $11, completed_at = $12, cancelled_at = $13, served_by = $14,
		    updated_at = $15
		WHERE id = $16
	`
	_, err := tx.Exec(ctx, query,
		order.Status, order.Subtotal, order.Tax, order.Discount, order.Tip, order.Total,
		order.PaymentStatus, order.ConfirmedAt, order.PreparingAt, order.ReadyAt,
		order.ServedAt, order.CompletedAt, order.CancelledAt, order.ServedBy,
		order.UpdatedAt, order.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	return nil
}

func updateItemRow(ctx context.Context, tx Tx, item *domain.OrderItem) error {
	query := `
		UPDATE order_items
		SET status = $1, sent_at = $2, preparing_at = $3, ready_at = $4,
		    served_at = $5, cancelled_at = $6
		WHERE id = $7
	`
	_, err := tx.Exec(ctx, query,
		item.Status, item.SentAt, item.PreparingAt, item.ReadyAt,
		item.ServedAt, item.CancelledAt, item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update order item: %w", err)
	}
	return nil
}

func insertTimeline(ctx context.Context, tx Tx, entry *domain.TimelineEntry) error {
	if entry == nil {
		return nil
	}
	query := `
		INSERT INTO order_timeline (id, order_id, action, description, actor_id, actor_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.Exec(ctx, query,
		entry.ID, entry.OrderID, entry.Action, entry.Description,
		entry.ActorID, entry.ActorName, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert timeline entry: %w", err)
	}
	return nil
}

func applyTableChange(ctx context.Context, tx Tx, change *interfaces.TableChange, at time.Time) error {
	if change == nil {
		return nil
	}
	_, err := tx.Exec(ctx, `UPDATE tables SET status = $1, updated_at = $2 WHERE id = $3`,
		change.NewStatus, at, change.TableID)
	if err != nil {
		return fmt.Errorf("failed to update table status: %w", err)
	}
	return nil
}
