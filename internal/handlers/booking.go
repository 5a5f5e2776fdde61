package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/slotwise/slotwise/internal/booking"
	"github.com/slotwise/slotwise/internal/model"
	"github.com/slotwise/slotwise/internal/payment"
)

type BookingHandler struct {
	orch     *payment.Orchestrator
	repo     *booking.Repository
	payments *payment.Repository
	logger   *slog.Logger
}

func NewBookingHandler(orch *payment.Orchestrator, repo *booking.Repository, payments *payment.Repository, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{orch: orch, repo: repo, payments: payments, logger: logger}
}

type createBookingRequest struct {
	ScheduledUserID string `json:"scheduled_user_id"`
	LocalStart      string `json:"local_start"`
	LocalEnd        string `json:"local_end"`
	LocalTZ         string `json:"local_tz"`
	Notes           string `json:"notes"`
	PaymentToken    string `json:"payment_token"`

	BillingStreet     string `json:"billing_street"`
	BillingLocality   string `json:"billing_locality"`
	BillingRegion     string `json:"billing_region"`
	BillingPostalCode string `json:"billing_postal_code"`
}

type bookingItem struct {
	BookingID        string `json:"booking_id"`
	SchedulingUserID string `json:"scheduling_user_id"`
	ScheduledUserID  string `json:"scheduled_user_id"`
	UTCStart         string `json:"utc_start"`
	UTCEnd           string `json:"utc_end"`
	DurationMinutes  int    `json:"duration_minutes"`
	TotalPrice       string `json:"total_price"`
	ServiceFee       string `json:"service_fee"`
	Notes            string `json:"notes,omitempty"`
	Status           string `json:"status"`
	CreatedAt        string `json:"created_at"`
}

func toBookingItem(b model.Booking) bookingItem {
	return bookingItem{
		BookingID:        b.PublicID,
		SchedulingUserID: b.SchedulingUserID,
		ScheduledUserID:  b.ScheduledUserID,
		UTCStart:         b.UTCStart.Format(time.RFC3339),
		UTCEnd:           b.UTCEnd.Format(time.RFC3339),
		DurationMinutes:  b.DurationMinutes,
		TotalPrice:       b.TotalPrice.StringFixed(2),
		ServiceFee:       b.ServiceFee.StringFixed(2),
		Notes:            b.Notes,
		Status:           string(b.Status),
		CreatedAt:        b.CreatedAt.Format(time.RFC3339),
	}
}

// Bookings serves GET (list, ?role=scheduling|scheduled&month_offset=N) and
// POST (book and pay) on /api/v1/bookings.
func (h *BookingHandler) Bookings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *BookingHandler) create(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r)
	if userID == "" {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ScheduledUserID = strings.TrimSpace(req.ScheduledUserID)
	if req.ScheduledUserID == "" || strings.TrimSpace(req.PaymentToken) == "" {
		http.Error(w, "missing required fields", http.StatusBadRequest)
		return
	}

	b, err := h.orch.Book(r.Context(), payment.BookRequest{
		Booking: booking.Request{
			SchedulingUserID: userID,
			ScheduledUserID:  req.ScheduledUserID,
			LocalStart:       req.LocalStart,
			LocalEnd:         req.LocalEnd,
			LocalTZ:          req.LocalTZ,
			Notes:            req.Notes,
		},
		PaymentToken: req.PaymentToken,
		Billing: payment.BillingAddress{
			Street:     req.BillingStreet,
			Locality:   req.BillingLocality,
			Region:     req.BillingRegion,
			PostalCode: req.BillingPostalCode,
		},
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookingItem(*b))
}

func (h *BookingHandler) list(w http.ResponseWriter, r *http.Request) {
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

	var (
		items []model.Booking
		err   error
	)
	switch role := r.URL.Query().Get("role"); role {
	case "", "scheduling":
		items, err = h.repo.ListForSchedulingUser(r.Context(), userID, offset)
	case "scheduled":
		items, err = h.repo.ListForScheduledUser(r.Context(), userID, offset)
	default:
		http.Error(w, "invalid role", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	out := make([]bookingItem, 0, len(items))
	for _, b := range items {
		out = append(out, toBookingItem(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": out})
}

// Get serves GET /api/v1/bookings/get?booking_id=...; only the two parties
// to a booking may read it.
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := callerID(r)
	if userID == "" {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}
	bookingID := strings.TrimSpace(r.URL.Query().Get("booking_id"))
	if bookingID == "" {
		http.Error(w, "missing booking_id", http.StatusBadRequest)
		return
	}

	b, err := h.repo.GetByID(r.Context(), userID, bookingID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	item := toBookingItem(b)
	out := map[string]any{"booking": item}
	if p, err := h.payments.GetForBooking(r.Context(), b.PublicID); err == nil {
		out["payment"] = paymentItem{
			PaymentID:  p.PublicID,
			BaseAmount: p.BaseAmount.StringFixed(2),
			ServiceFee: p.ServiceFee.StringFixed(2),
			TotalPrice: p.TotalPrice.StringFixed(2),
			GatewayRef: p.GatewayRef,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type paymentItem struct {
	PaymentID  string `json:"payment_id"`
	BaseAmount string `json:"base_amount"`
	ServiceFee string `json:"service_fee"`
	TotalPrice string `json:"total_price"`
	GatewayRef string `json:"gateway_ref"`
}

type updateNotesRequest struct {
	BookingID string  `json:"booking_id"`
	Notes     *string `json:"notes"`
}

// UpdateNotes serves POST /api/v1/bookings/notes. Notes is the only field a
// booking admits changes to after commit.
func (h *BookingHandler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := callerID(r)
	if userID == "" {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}
	var req updateNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.BookingID) == "" {
		http.Error(w, "missing booking_id", http.StatusBadRequest)
		return
	}

	b, err := h.repo.UpdateNotes(r.Context(), userID, req.BookingID, model.BookingUpdate{Notes: req.Notes})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingItem(b))
}
