package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/ledgerline/reconcile-backend/internal/infrastructure/config"
)

// Webhook posts alerts as JSON to a configured endpoint, retrying transient
// failures with exponential backoff.
type Webhook struct {
	client *retryablehttp.Client
	url    string
	logger *slog.Logger
}

// webhookPayload is the JSON body posted to the endpoint.
type webhookPayload struct {
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	Recipients []string `json:"recipients"`
}

// NewWebhook creates a webhook notifier.
func NewWebhook(cfg config.WebhookConfig, logger *slog.Logger) *Webhook {
	if logger == nil {
		logger = slog.Default()
	}
	client := retryablehttp.NewClient()
	client.RetryMax = cfg.MaxRetries
	// Outcomes are logged here; the client's own chatter is noise.
	client.Logger = nil

	return &Webhook{
		client: client,
		url:    cfg.URL,
		logger: logger,
	}
}

// Send posts the alert and fails on any non-2xx response.
func (w *Webhook) Send(ctx context.Context, subject, body string, recipients []string) error {
	payload, err := json.Marshal(webhookPayload{
		Subject:    subject,
		Body:       body,
		Recipients: recipients,
	})
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, w.url, payload)
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}

	w.logger.Debug("webhook alert delivered", "status", resp.StatusCode)
	return nil
}
