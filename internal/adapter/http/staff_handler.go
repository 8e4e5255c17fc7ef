package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/syslogsitsolutions/menulogs/internal/adapter/logger"
	"github.com/syslogsitsolutions/menulogs/internal/app/realtime"
	"github.com/syslogsitsolutions/menulogs/internal/domain"
)

type staffClockRequest struct {
	LocationID uuid.UUID `json:"location_id"`
}

type kitchenAlertRequest struct {
	LocationID uuid.UUID  `json:"location_id"`
	Message    string     `json:"message"`
	OrderID    *uuid.UUID `json:"order_id,omitempty"`
}

// StaffHandler publishes presence and kitchen events straight onto
// the realtime router; nothing here is persisted.
type StaffHandler struct {
	router  *realtime.Router
	logger  logger.Logger
	devMode bool
}

func NewStaffHandler(router *realtime.Router, lgr logger.Logger, devMode bool) *StaffHandler {
	return &StaffHandler{router: router, logger: lgr, devMode: devMode}
}

func (h *StaffHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /staff/clock-in", h.clock(true))
	mux.HandleFunc("POST /staff/clock-out", h.clock(false))
	mux.HandleFunc("POST /kitchen/alerts", h.KitchenAlert)
}

func (h *StaffHandler) clock(in bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := IdentityFrom(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing identity", Kind: domain.KindAuthorization})
			return
		}
		if actor.StaffID == nil {
			writeError(w, domain.NewError(domain.KindAuthorization, "staff credential required"), h.devMode)
			return
		}
		var req staffClockRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, domain.NewError(domain.KindValidation, "invalid request body"), h.devMode)
			return
		}

		event := domain.NewEvent(req.LocationID, nil, time.Now().UTC(), domain.StaffClockPayload{
			In:      in,
			UserID:  actor.UserID,
			StaffID: *actor.StaffID,
			Name:    actor.Name,
		})
		h.router.Publish(r.Context(), event)
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "ok"})
	}
}

func (h *StaffHandler) KitchenAlert(w http.ResponseWriter, r *http.Request) {
	actor, ok := IdentityFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing identity", Kind: domain.KindAuthorization})
		return
	}
	if !actor.Role.KitchenRole() {
		writeError(w, domain.NewError(domain.KindAuthorization, "kitchen role required"), h.devMode)
		return
	}
	var req kitchenAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewError(domain.KindValidation, "invalid request body"), h.devMode)
		return
	}
	if req.Message == "" {
		writeError(w, domain.NewError(domain.KindValidation, "message is required"), h.devMode)
		return
	}

	event := domain.NewEvent(req.LocationID, req.OrderID, time.Now().UTC(), domain.KitchenAlertPayload{
		Message: req.Message,
		OrderID: req.OrderID,
	})
	h.router.Publish(r.Context(), event)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "ok"})
}
