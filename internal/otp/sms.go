package otp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPSender posts the code to an SMS gateway endpoint and treats anything
// but a 2xx as a failed delivery.
type HTTPSender struct {
	Endpoint string
	Client   *http.Client
}

func NewHTTPSender(endpoint string, timeout time.Duration) *HTTPSender {
	return &HTTPSender{Endpoint: endpoint, Client: &http.Client{Timeout: timeout}}
}

func (h *HTTPSender) Deliver(ctx context.Context, phone, code string) error {
	b, _ := json.Marshal(map[string]string{"phone": phone, "text": "Your code: " + code})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := h.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sms gateway status %d", resp.StatusCode)
	}
	return nil
}
