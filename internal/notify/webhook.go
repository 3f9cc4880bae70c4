package notify

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/ride-hail/internal/models"
)

// WebhookNotifier posts freshly opened orders to a driver-app backend so
// drivers learn about offers without polling. Best-effort: a failed post is
// logged and forgotten, drivers still see the order via GET /driver/offers.
type WebhookNotifier struct {
	Endpoint string
	Client   *http.Client
	Logger   *slog.Logger
}

func NewWebhookNotifier(endpoint string, logger *slog.Logger) *WebhookNotifier {
	return &WebhookNotifier{Endpoint: endpoint, Client: &http.Client{Timeout: 3 * time.Second}, Logger: logger}
}

func (n *WebhookNotifier) OfferOpened(o models.Order) {
	b, _ := json.Marshal(map[string]any{"order_id": o.ID, "offer": o})
	resp, err := n.Client.Post(n.Endpoint, "application/json", bytes.NewReader(b))
	if err != nil {
		n.Logger.Warn("offer webhook failed", "order_id", o.ID, "error", err)
		return
	}
	resp.Body.Close()
}
