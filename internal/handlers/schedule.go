package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/slotwise/slotwise/internal/fault"
	"github.com/slotwise/slotwise/internal/model"
	"github.com/slotwise/slotwise/internal/schedule"
	"github.com/slotwise/slotwise/internal/timerange"
)

type ScheduleHandler struct {
	store  *schedule.Store
	logger *slog.Logger
}

func NewScheduleHandler(store *schedule.Store, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{store: store, logger: logger}
}

type windowRequest struct {
	WindowID   string `json:"window_id,omitempty"`
	LocalStart string `json:"local_start"`
	LocalEnd   string `json:"local_end"`
	LocalTZ    string `json:"local_tz"`
}

type windowItem struct {
	WindowID  string `json:"window_id"`
	UTCStart  string `json:"utc_start"`
	UTCEnd    string `json:"utc_end"`
	LocalTZ   string `json:"local_tz"`
	CreatedAt string `json:"created_at"`
}

func toWindowItem(w model.AvailabilityWindow) windowItem {
	return windowItem{
		WindowID:  w.PublicID,
		UTCStart:  w.UTCStart.Format(time.RFC3339),
		UTCEnd:    w.UTCEnd.Format(time.RFC3339),
		LocalTZ:   w.LocalTZ,
		CreatedAt: w.CreatedAt.Format(time.RFC3339),
	}
}

// Windows serves GET (list current-period windows, ?month_offset=N) and
// POST (create) on /api/v1/schedules.
func (h *ScheduleHandler) Windows(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ScheduleHandler) list(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r)
	if userID == "" {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}
	offset, ok := monthOffset(r)
	if !ok {
		http.Error(w, "invalid month_offset", http.StatusBadRequest)
		return
	}

	windows, err := h.store.ListForPeriod(r.Context(), userID, offset)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	items := make([]windowItem, 0, len(windows))
	for _, win := range windows {
		items = append(items, toWindowItem(win))
	}
	writeJSON(w, http.StatusOK, map[string]any{"windows": items})
}

func (h *ScheduleHandler) create(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r)
	if userID == "" {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}
	var req windowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	start, end, err := parseRange(req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	win, err := h.store.CreateWindow(r.Context(), userID, start, end, req.LocalTZ)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWindowItem(win))
}

// Update serves POST /api/v1/schedules/update.
func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := callerID(r)
	if userID == "" {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}
	var req windowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.WindowID) == "" {
		http.Error(w, "missing window_id", http.StatusBadRequest)
		return
	}

	start, end, err := parseRange(req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	win, err := h.store.UpdateWindow(r.Context(), req.WindowID, userID, start, end)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toWindowItem(win))
}

type deleteWindowRequest struct {
	WindowID string `json:"window_id"`
}

// Delete serves POST /api/v1/schedules/delete.
func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := callerID(r)
	if userID == "" {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}
	var req deleteWindowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.WindowID) == "" {
		http.Error(w, "missing window_id", http.StatusBadRequest)
		return
	}

	if err := h.store.DeleteWindow(r.Context(), req.WindowID, userID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"window_id": req.WindowID, "status": "deleted"})
}

func parseRange(req windowRequest) (time.Time, time.Time, error) {
	if strings.TrimSpace(req.LocalTZ) == "" {
		return time.Time{}, time.Time{}, fault.New(fault.KindValidation, fault.CodeInvalidTimezone,
			"missing local_tz")
	}
	start, err := timerange.ParseInZone(req.LocalStart, req.LocalTZ)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := timerange.ParseInZone(req.LocalEnd, req.LocalTZ)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}
