package alerting

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/ligatr/league-engine/internal/platform/logging"
)

type WebhookAlerterConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// WebhookAlerter posts watchdog findings as JSON to an incident webhook.
// Delivery is best effort; the watchdog logs and moves on when it fails.
type WebhookAlerter struct {
	client *http.Client
	url    string
	token  string
	logger *logging.Logger
}

func NewWebhookAlerter(cfg WebhookAlerterConfig, logger *logging.Logger) *WebhookAlerter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &WebhookAlerter{
		client: &http.Client{Timeout: timeout},
		url:    strings.TrimSpace(cfg.URL),
		token:  strings.TrimSpace(cfg.Token),
		logger: logger,
	}
}

type alertPayload struct {
	Summary string         `json:"summary"`
	Fields  map[string]any `json:"fields,omitempty"`
	SentAt  string         `json:"sentAt"`
}

func (a *WebhookAlerter) Alert(ctx context.Context, summary string, fields map[string]any) error {
	if a.url == "" {
		return crerr.New("alert webhook url is not configured")
	}

	body, err := sonic.Marshal(alertPayload{
		Summary: summary,
		Fields:  fields,
		SentAt:  time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return crerr.Wrap(err, "marshal alert payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, strings.NewReader(string(body)))
	if err != nil {
		return crerr.Wrap(err, "create alert request")
	}
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver alert: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("deliver alert status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	a.logger.InfoContext(ctx, "watchdog alert delivered", "summary", summary)
	return nil
}
