package events

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/atvirokodosprendimai/audito/internal/core/domain"
)

const defaultWebhookTimeout = 10 * time.Second

// WebhookNotifier POSTs a summary of every stored audit record to a
// configured URL. Each request is signed with HMAC-SHA256 so the receiver can
// verify authenticity. Non-2xx responses are reported as errors.
type WebhookNotifier struct {
	url    string
	secret []byte
	client *http.Client
}

// NewWebhookNotifier returns a notifier posting to url. A zero or negative
// timeout falls back to 10s.
func NewWebhookNotifier(url, secret string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	return &WebhookNotifier{
		url:    url,
		secret: []byte(secret),
		client: &http.Client{Timeout: timeout},
	}
}

// Notify sends the record summary with these headers:
//
//	Content-Type:          application/json
//	X-Audito-Event-Type:   audit.record.created
//	X-Audito-Event-Id:     <summary.EventID>
//	X-Hub-Signature-256:   sha256=<hex-encoded HMAC-SHA256>
func (n *WebhookNotifier) Notify(ctx context.Context, s domain.AuditSummary) error {
	payload, err := json.Marshal(newRecordCreated(s))
	if err != nil {
		return fmt.Errorf("marshal record summary: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Audito-Event-Type", eventTypeRecordCreated)
	req.Header.Set("X-Audito-Event-Id", s.EventID)
	req.Header.Set("X-Hub-Signature-256", "sha256="+n.sign(payload))

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func (n *WebhookNotifier) sign(payload []byte) string {
	mac := hmac.New(sha256.New, n.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
