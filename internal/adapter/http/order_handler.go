package http

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/syslogsitsolutions/menulogs/internal/adapter/logger"
	"github.com/syslogsitsolutions/menulogs/internal/domain"
	"github.com/syslogsitsolutions/menulogs/internal/interfaces"
)

// OrderHandler exposes the lifecycle engine's order commands over
// REST. Every mutation goes through the engine; nothing here touches
// stores directly.
type OrderHandler struct {
	lifecycle interfaces.OrderLifecycle
	logger    logger.Logger
	devMode   bool
}

func NewOrderHandler(lifecycle interfaces.OrderLifecycle, lgr logger.Logger, devMode bool) *OrderHandler {
	return &OrderHandler{lifecycle: lifecycle, logger: lgr, devMode: devMode}
}

func (h *OrderHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /orders", h.CreateOrder)
	mux.HandleFunc("GET /orders/{id}", h.GetOrder)
	mux.HandleFunc("GET /orders/{id}/timeline", h.GetTimeline)
	mux.HandleFunc("POST /orders/{id}/status", h.AdvanceStatus)
	mux.HandleFunc("POST /orders/{id}/items", h.AddItem)
	mux.HandleFunc("DELETE /orders/{id}/items/{itemID}", h.RemoveItem)
	mux.HandleFunc("POST /orders/{id}/items/{itemID}/status", h.UpdateItemStatus)
	mux.HandleFunc("POST /orders/{id}/payments", h.AddPayment)
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := IdentityFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing identity", Kind: domain.KindAuthorization})
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewError(domain.KindValidation, "invalid request body"), h.devMode)
		return
	}

	cmd := interfaces.CreateOrderCommand{
		LocationID:    req.LocationID,
		Type:          domain.OrderType(req.OrderType),
		TableID:       req.TableID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Confirmed:     req.Confirmed,
		Discount:      req.Discount,
		Tip:           req.Tip,
	}
	for _, item := range req.Items {
		cmd.Items = append(cmd.Items, interfaces.CreateOrderItemCommand{
			MenuItemID: item.MenuItemID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			Notes:      item.Notes,
		})
	}

	order, err := h.lifecycle.CreateOrder(r.Context(), cmd, actor)
	if err != nil {
		h.logger.Error("order_creation_failed", "Failed to create order", "", nil, err)
		writeError(w, err, h.devMode)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, domain.NewError(domain.KindValidation, "invalid order id"), h.devMode)
		return
	}
	order, err := h.lifecycle.GetOrder(r.Context(), orderID)
	if err != nil {
		writeError(w, err, h.devMode)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, domain.NewError(domain.KindValidation, "invalid order id"), h.devMode)
		return
	}
	entries, err := h.lifecycle.GetTimeline(r.Context(), orderID)
	if err != nil {
		writeError(w, err, h.devMode)
		return
	}
	resp := make([]timelineEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, timelineEntryResponse{
			Action:      e.Action,
			Description: e.Description,
			ActorID:     e.ActorID,
			ActorName:   e.ActorName,
			CreatedAt:   e.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *OrderHandler) AdvanceStatus(w http.ResponseWriter, r *http.Request) {
	actor, orderID, ok := h.actorAndOrder(w, r)
	if !ok {
		return
	}
	var req advanceStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewError(domain.KindValidation, "invalid request body"), h.devMode)
		return
	}

	order, err := h.lifecycle.AdvanceStatus(r.Context(), orderID, domain.OrderStatus(req.Status), actor)
	if err != nil {
		writeError(w, err, h.devMode)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	actor, orderID, ok := h.actorAndOrder(w, r)
	if !ok {
		return
	}
	var req orderItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewError(domain.KindValidation, "invalid request body"), h.devMode)
		return
	}

	order, err := h.lifecycle.AddItem(r.Context(), orderID, interfaces.CreateOrderItemCommand{
		MenuItemID: req.MenuItemID,
		Name:       req.Name,
		Quantity:   req.Quantity,
		UnitPrice:  req.UnitPrice,
		Notes:      req.Notes,
	}, actor)
	if err != nil {
		writeError(w, err, h.devMode)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	actor, orderID, ok := h.actorAndOrder(w, r)
	if !ok {
		return
	}
	itemID, err := uuid.Parse(r.PathValue("itemID"))
	if err != nil {
		writeError(w, domain.NewError(domain.KindValidation, "invalid item id"), h.devMode)
		return
	}

	order, err := h.lifecycle.RemoveItem(r.Context(), orderID, itemID, actor)
	if err != nil {
		writeError(w, err, h.devMode)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) UpdateItemStatus(w http.ResponseWriter, r *http.Request) {
	actor, orderID, ok := h.actorAndOrder(w, r)
	if !ok {
		return
	}
	itemID, err := uuid.Parse(r.PathValue("itemID"))
	if err != nil {
		writeError(w, domain.NewError(domain.KindValidation, "invalid item id"), h.devMode)
		return
	}
	var req itemStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewError(domain.KindValidation, "invalid request body"), h.devMode)
		return
	}

	order, err := h.lifecycle.UpdateItemStatus(r.Context(), orderID, itemID, domain.ItemStatus(req.Status), actor)
	if err != nil {
		writeError(w, err, h.devMode)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) AddPayment(w http.ResponseWriter, r *http.Request) {
	actor, orderID, ok := h.actorAndOrder(w, r)
	if !ok {
		return
	}
	var req addPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewError(domain.KindValidation, "invalid request body"), h.devMode)
		return
	}

	order, err := h.lifecycle.AddPayment(r.Context(), orderID, interfaces.AddPaymentCommand{
		Method:    req.Method,
		Amount:    req.Amount,
		Reference: req.Reference,
	}, actor)
	if err != nil {
		writeError(w, err, h.devMode)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) actorAndOrder(w http.ResponseWriter, r *http.Request) (domain.Identity, uuid.UUID, bool) {
	actor, ok := IdentityFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing identity", Kind: domain.KindAuthorization})
		return domain.Identity{}, uuid.Nil, false
	}
	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, domain.NewError(domain.KindValidation, "invalid order id"), h.devMode)
		return domain.Identity{}, uuid.Nil, false
	}
	return actor, orderID, true
}
