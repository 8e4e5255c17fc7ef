package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/syslogsitsolutions/menulogs/internal/domain"
)

type errorResponse struct {
	Error  string      `json:"error"`
	Kind   domain.Kind `json:"kind"`
	Detail string      `json:"detail,omitempty"`
}

func statusForKind(kind domain.Kind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindInvalidTransition, domain.KindConflict:
		return http.StatusConflict
	case domain.KindAuthorization:
		return http.StatusForbidden
	case domain.KindTransientInfra:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps a domain error to a stable kind and message.
// Internal detail is only exposed in dev mode.
func writeError(w http.ResponseWriter, err error, devMode bool) {
	kind := domain.KindOf(err)
	resp := errorResponse{Kind: kind}

	var de *domain.Error
	if errors.As(err, &de) {
		resp.Error = de.Message
	} else {
		resp.Error = "internal error"
	}
	if devMode {
		resp.Detail = err.Error()
	}
	writeJSON(w, statusForKind(kind), resp)
}
