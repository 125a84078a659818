package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Notifier delivers user-facing pings. Delivery is fire-and-forget:
// implementations swallow every failure, because a missed notification
// must never affect ledger state.
type Notifier interface {
	Notify(ctx context.Context, externalUserID, message string)
}

// HTTPNotifier posts messages to the messaging gateway.
type HTTPNotifier struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewHTTPNotifier(baseURL, token string) *HTTPNotifier {
	return &HTTPNotifier{
		BaseURL: baseURL,
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (n *HTTPNotifier) Notify(ctx context.Context, externalUserID, message string) {
	if n.BaseURL == "" {
		return
	}

	payload, err := json.Marshal(map[string]string{
		"user_id": externalUserID,
		"message": message,
	})
	if err != nil {
		log.Printf("⚠️ [NOTIFY] failed to encode payload for %s: %v", externalUserID, err)
		return
	}

	url := fmt.Sprintf("%s/api/v1/notify", n.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		log.Printf("⚠️ [NOTIFY] failed to build request for %s: %v", externalUserID, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Service-Token", n.Token)

	resp, err := n.HTTPClient.Do(req)
	if err != nil {
		log.Printf("⚠️ [NOTIFY] delivery to %s failed: %v", externalUserID, err)
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode >= 300 {
		log.Printf("⚠️ [NOTIFY] gateway returned status %d for %s", resp.StatusCode, externalUserID)
	}
}

// NopNotifier drops everything; used in tests and when no gateway is
// configured.
type NopNotifier struct{}

func (NopNotifier) Notify(ctx context.Context, externalUserID, message string) {}
