package http

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/syslogsitsolutions/menulogs/internal/domain"
)

type createOrderRequest struct {
	LocationID    uuid.UUID          `json:"location_id"`
	OrderType     string             `json:"order_type"`
	TableID       *uuid.UUID         `json:"table_id,omitempty"`
	CustomerName  string             `json:"customer_name,omitempty"`
	CustomerPhone string             `json:"customer_phone,omitempty"`
	Confirmed     bool               `json:"confirmed,omitempty"`
	Discount      decimal.Decimal    `json:"discount"`
	Tip           decimal.Decimal    `json:"tip"`
	Items         []orderItemRequest `json:"items"`
}

type orderItemRequest struct {
	MenuItemID uuid.UUID       `json:"menu_item_id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Notes      string          `json:"notes,omitempty"`
}

type advanceStatusRequest struct {
	Status string `json:"status"`
}

type itemStatusRequest struct {
	Status string `json:"status"`
}

type addPaymentRequest struct {
	Method    string          `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference,omitempty"`
}

type tableStatusRequest struct {
	Status string `json:"status"`
}

type orderResponse struct {
	ID            uuid.UUID           `json:"id"`
	LocationID    uuid.UUID           `json:"location_id"`
	Number        int                 `json:"order_number"`
	Type          domain.OrderType    `json:"order_type"`
	Status        domain.OrderStatus  `json:"status"`
	TableID       *uuid.UUID          `json:"table_id,omitempty"`
	CustomerName  string              `json:"customer_name,omitempty"`
	CustomerPhone string              `json:"customer_phone,omitempty"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	Tax           decimal.Decimal     `json:"tax"`
	Discount      decimal.Decimal     `json:"discount"`
	Tip           decimal.Decimal     `json:"tip"`
	Total         decimal.Decimal     `json:"total"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	Items         []orderItemResponse `json:"items"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

type orderItemResponse struct {
	ID        uuid.UUID         `json:"id"`
	Name      string            `json:"name"`
	Quantity  int               `json:"quantity"`
	UnitPrice decimal.Decimal   `json:"unit_price"`
	LineTotal decimal.Decimal   `json:"line_total"`
	Notes     string            `json:"notes,omitempty"`
	Status    domain.ItemStatus `json:"status"`
}

type tableResponse struct {
	ID        uuid.UUID          `json:"id"`
	Number    int                `json:"number"`
	Name      string             `json:"name,omitempty"`
	Capacity  int                `json:"capacity"`
	Status    domain.TableStatus `json:"status"`
	SortOrder int                `json:"sort_order"`
}

type timelineEntryResponse struct {
	Action      string    `json:"action"`
	Description string    `json:"description"`
	ActorID     uuid.UUID `json:"actor_id"`
	ActorName   string    `json:"actor_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toOrderResponse(order *domain.Order) orderResponse {
	resp := orderResponse{
		ID:            order.ID,
		LocationID:    order.LocationID,
		Number:        order.Number,
		Type:          order.Type,
		Status:        order.Status,
		TableID:       order.TableID,
		CustomerName:  order.CustomerName,
		CustomerPhone: order.CustomerPhone,
		Subtotal:      order.Subtotal,
		Tax:           order.Tax,
		Discount:      order.Discount,
		Tip:           order.Tip,
		Total:         order.Total,
		PaymentStatus: order.PaymentStatus,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ID:        item.ID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
			Notes:     item.Notes,
			Status:    item.Status,
		})
	}
	return resp
}

func toTableResponse(t *domain.Table) tableResponse {
	return tableResponse{
		ID:        t.ID,
		Number:    t.Number,
		Name:      t.Name,
		Capacity:  t.Capacity,
		Status:    t.Status,
		SortOrder: t.SortOrder,
	}
}
