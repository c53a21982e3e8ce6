package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/matiassromo/registro-helados/internal/core/security"
)

const userAgent = "RegistroHelados-Webhook/1.0"

// DefaultClient never lets a slow receiver hold a delivery for long.
var DefaultClient = &http.Client{Timeout: 5 * time.Second}

// SendWebhook POSTs payload as JSON to url. With a secret, the body is
// signed with HMAC-SHA256 in the X-Signature header.
func SendWebhook(ctx context.Context, client *http.Client, url string, payload interface{}, secret string) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if secret != "" {
		req.Header.Set("X-Signature", security.Sign(jsonData, secret))
	}

	if client == nil {
		client = DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("webhook receiver returned error: %d", resp.StatusCode)
}
