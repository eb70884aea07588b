package alerting

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	sonic "github.com/bytedance/sonic"

	"github.com/ligatr/league-engine/internal/platform/logging"
)

func TestAlert_PostsSummaryAndFields(t *testing.T) {
	var body atomic.Pointer[map[string]any]
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer hook-token" {
			t.Errorf("unexpected auth header %q", got)
		}
		var decoded map[string]any
		if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&decoded); err != nil {
			t.Errorf("decode alert payload: %v", err)
		}
		body.Store(&decoded)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	alerter := NewWebhookAlerter(WebhookAlerterConfig{URL: srv.URL, Token: "hook-token"}, logging.NewNop())
	err := alerter.Alert(context.Background(), "watchdog found 2 overdue matches", map[string]any{
		"day_key":  "2026-03-14",
		"findings": 2,
	})
	if err != nil {
		t.Fatalf("alert: %v", err)
	}

	payload := body.Load()
	if payload == nil {
		t.Fatal("alert never reached the webhook")
	}
	decoded := *payload
	if got, _ := decoded["summary"].(string); got != "watchdog found 2 overdue matches" {
		t.Fatalf("unexpected summary: %v", decoded["summary"])
	}
	fields, _ := decoded["fields"].(map[string]any)
	if got, _ := fields["day_key"].(string); got != "2026-03-14" {
		t.Fatalf("unexpected fields: %v", decoded["fields"])
	}
	if got, _ := decoded["sentAt"].(string); got == "" {
		t.Fatal("expected a sentAt timestamp")
	}
}

func TestAlert_NonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	alerter := NewWebhookAlerter(WebhookAlerterConfig{URL: srv.URL}, logging.NewNop())
	if err := alerter.Alert(context.Background(), "summary", nil); err == nil {
		t.Fatal("expected error for 403 response")
	}
}

func TestAlert_MissingURLIsError(t *testing.T) {
	alerter := NewWebhookAlerter(WebhookAlerterConfig{}, logging.NewNop())
	if err := alerter.Alert(context.Background(), "summary", nil); err == nil {
		t.Fatal("expected error when the webhook url is unset")
	}
}
