package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/slotwise/slotwise/internal/merchant"
)

// GatewayWebhookHandler receives submerchant account status notifications
// from the payment gateway.
type GatewayWebhookHandler struct {
	directory *merchant.Directory
	secret    string
	logger    *slog.Logger
}

func NewGatewayWebhookHandler(directory *merchant.Directory, secret string, logger *slog.Logger) *GatewayWebhookHandler {
	return &GatewayWebhookHandler{directory: directory, secret: secret, logger: logger}
}

type gatewayNotification struct {
	Kind              string `json:"kind"`
	GatewayAccountRef string `json:"gateway_account_ref"`
}

// Notify serves POST /api/v1/gateway/webhook.
func (h *GatewayWebhookHandler) Notify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.secret != "" {
		got := r.Header.Get("X-Webhook-Secret")
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}

	var req gatewayNotification
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.GatewayAccountRef = strings.TrimSpace(req.GatewayAccountRef)
	if req.GatewayAccountRef == "" {
		http.Error(w, "missing gateway_account_ref", http.StatusBadRequest)
		return
	}

	decision, err := merchant.ParseDecision(req.Kind)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.directory.ApplyNotification(r.Context(), merchant.Notification{
		GatewayAccountRef: req.GatewayAccountRef,
		Decision:          decision,
	}); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info("submerchant notification applied",
		"gateway_account_ref", req.GatewayAccountRef,
		"kind", req.Kind,
	)
	writeJSON(w, http.StatusOK, map[string]string{"status": "applied"})
}
