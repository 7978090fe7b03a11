package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/oshokin/commute-alarm/internal/metrics"
)

// defaultWebhookTimeout bounds one webhook delivery.
const defaultWebhookTimeout = 10 * time.Second

var (
	// errEmptyWebhookURL is returned when the presenter has no destination.
	errEmptyWebhookURL = errors.New("webhook presenter: empty url")
	// errWebhookStatus is returned for a non-2xx webhook answer.
	errWebhookStatus = errors.New("webhook presenter: non-2xx response")
)

// WebhookPresenter posts notifications as JSON.
type WebhookPresenter struct {
	url    string
	client *http.Client
}

type webhookPayload struct {
	Request

	// Text is a plain-text rendering for receivers that show a single field.
	Text string `json:"text"`
	// SentAt is when the notification was posted.
	SentAt time.Time `json:"sent_at"`
}

// NewWebhookPresenter constructs a presenter posting to url.
func NewWebhookPresenter(url string, client *http.Client) *WebhookPresenter {
	if client == nil {
		client = &http.Client{Timeout: defaultWebhookTimeout}
	}

	return &WebhookPresenter{
		url:    url,
		client: client,
	}
}

// Setup verifies the presenter is configured.
func (w *WebhookPresenter) Setup(context.Context) error {
	if w == nil || w.url == "" {
		return errEmptyWebhookURL
	}

	return nil
}

// Present posts req to the webhook.
func (w *WebhookPresenter) Present(ctx context.Context, req Request) error {
	err := w.post(ctx, req)
	if err != nil {
		metrics.IncNotification("webhook", metrics.ResultError)

		return err
	}

	metrics.IncNotification("webhook", metrics.ResultSuccess)

	return nil
}

func (w *WebhookPresenter) post(ctx context.Context, req Request) error {
	if w == nil || w.url == "" {
		return errEmptyWebhookURL
	}

	body, err := json.Marshal(webhookPayload{
		Request: req,
		Text:    req.Text(),
		SentAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}

	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: %d", errWebhookStatus, resp.StatusCode)
	}

	return nil
}
