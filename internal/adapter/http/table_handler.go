package http

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/syslogsitsolutions/menulogs/internal/adapter/logger"
	"github.com/syslogsitsolutions/menulogs/internal/domain"
	"github.com/syslogsitsolutions/menulogs/internal/interfaces"
)

type TableHandler struct {
	lifecycle interfaces.OrderLifecycle
	logger    logger.Logger
	devMode   bool
}

func NewTableHandler(lifecycle interfaces.OrderLifecycle, lgr logger.Logger, devMode bool) *TableHandler {
	return &TableHandler{lifecycle: lifecycle, logger: lgr, devMode: devMode}
}

func (h *TableHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /tables", h.ListTables)
	mux.HandleFunc("POST /tables/{id}/status", h.SetStatus)
	mux.HandleFunc("DELETE /tables/{id}", h.Delete)
}

func (h *TableHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	locationID, err := uuid.Parse(r.URL.Query().Get("location_id"))
	if err != nil {
		writeError(w, domain.NewError(domain.KindValidation, "invalid location id"), h.devMode)
		return
	}
	tables, err := h.lifecycle.ListTables(r.Context(), locationID)
	if err != nil {
		writeError(w, err, h.devMode)
		return
	}
	resp := make([]tableResponse, 0, len(tables))
	for _, t := range tables {
		resp = append(resp, toTableResponse(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *TableHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := IdentityFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing identity", Kind: domain.KindAuthorization})
		return
	}
	tableID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, domain.NewError(domain.KindValidation, "invalid table id"), h.devMode)
		return
	}
	var req tableStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewError(domain.KindValidation, "invalid request body"), h.devMode)
		return
	}

	table, err := h.lifecycle.SetTableStatus(r.Context(), tableID, domain.TableStatus(req.Status), actor)
	if err != nil {
		writeError(w, err, h.devMode)
		return
	}
	writeJSON(w, http.StatusOK, toTableResponse(table))
}

func (h *TableHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, domain.NewError(domain.KindAuthorization, "missing identity"), h.devMode)
		return
	}
	tableID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, domain.NewError(domain.KindValidation, "invalid table id"), h.devMode)
		return
	}
	if err := h.lifecycle.DeleteTable(r.Context(), tableID, actor); err != nil {
		writeError(w, err, h.devMode)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
