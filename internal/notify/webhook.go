package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/fsotosa-ops/meridian-bdr/internal/model"
	"github.com/fsotosa-ops/meridian-bdr/internal/resilience"
)

// WebhookPayload is the JSON body posted to the webhook.
type WebhookPayload struct {
	Event   string `json:"event"`
	Subject string `json:"subject"`
	model.Digest
}

// WebhookOption configures a WebhookNotifier.
type WebhookOption func(*WebhookNotifier)

// WithWebhookHTTPClient overrides the HTTP client.
func WithWebhookHTTPClient(hc *http.Client) WebhookOption {
	return func(w *WebhookNotifier) { w.client = hc }
}

// WithWebhookRetry overrides the retry policy.
func WithWebhookRetry(cfg resilience.RetryConfig) WebhookOption {
	return func(w *WebhookNotifier) { w.retry = cfg }
}

// WebhookNotifier posts the digest as JSON.
type WebhookNotifier struct {
	url    string
	client *http.Client
	retry  resilience.RetryConfig
}

// NewWebhook creates a WebhookNotifier for url.
func NewWebhook(url string, opts ...WebhookOption) *WebhookNotifier {
	w := &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		retry:  resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(w)
	}
	w.retry.OnRetry = resilience.RetryLogger("webhook", "notify")
	return w
}

// Notify implements Notifier.
func (w *WebhookNotifier) Notify(ctx context.Context, digest model.Digest) error {
	payload, err := json.Marshal(WebhookPayload{Event: "digest", Subject: Subject(digest), Digest: digest})
	if err != nil {
		return eris.Wrap(err, "notify: marshal webhook payload")
	}
	err = resilience.Do(ctx, w.retry, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
		if err != nil {
			return eris.Wrap(err, "notify: create webhook request")
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := w.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close() //nolint:errcheck

		if resp.StatusCode >= 400 {
			var body bytes.Buffer
			_, _ = body.ReadFrom(resp.Body)
			return resilience.CheckStatus("webhook", resp.StatusCode, body.Bytes())
		}
		return nil
	})
	if err != nil {
		return eris.Wrap(err, "notify: webhook")
	}
	return nil
}
