// Package handlers is the HTTP glue over the booking core: decode, call,
// map fault kinds to statuses. No business rules live here.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/slotwise/slotwise/internal/fault"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the fault taxonomy to a status and serializes only the
// stable code and caller-safe message. Causes stay in the logs.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	kind := fault.KindOf(err)
	status := statusForKind(kind)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, errorBody{Error: errorDetail{
		Code:    fault.CodeOf(err),
		Message: fault.MessageOf(err),
	}})
}

func statusForKind(kind fault.Kind) int {
	switch kind {
	case fault.KindValidation:
		return http.StatusBadRequest
	case fault.KindPolicy:
		return http.StatusUnprocessableEntity
	case fault.KindConflict:
		return http.StatusConflict
	case fault.KindNotFound:
		return http.StatusNotFound
	case fault.KindPaymentFailed:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// callerID is the authenticated user's public id, injected upstream by the
// edge proxy after it verifies the session.
func callerID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-Id"))
}

func monthOffset(r *http.Request) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("month_offset"))
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}
