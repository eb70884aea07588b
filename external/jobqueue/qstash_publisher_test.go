package jobqueue

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ligatr/league-engine/internal/platform/logging"
	"github.com/ligatr/league-engine/internal/platform/resilience"
	"github.com/ligatr/league-engine/internal/usecase"
)

func newTestPublisher(t *testing.T, handler http.HandlerFunc) (*QStashPublisher, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:          srv.URL,
		Token:            "qstash-token",
		TargetBaseURL:    "https://league-engine.fly.dev",
		Retries:          2,
		InternalJobToken: "job-secret",
		Timeout:          2 * time.Second,
		CircuitBreaker:   resilience.CircuitBreakerConfig{Enabled: false},
	}, logging.NewNop())
	return p, srv
}

func TestEnqueue_SetsDeliveryHeaders(t *testing.T) {
	var seen atomic.Pointer[http.Header]
	p, _ := newTestPublisher(t, func(w http.ResponseWriter, r *http.Request) {
		headers := r.Header.Clone()
		seen.Store(&headers)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"messageId":"msg-1"}`))
	})

	err := p.Enqueue(context.Background(), "/v1/internal/jobs/start-match/2", map[string]string{
		"matchId":  "match-1",
		"leagueId": "league-1",
	}, 30*time.Second, "match-1")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	headers := seen.Load()
	if headers == nil {
		t.Fatal("publish request never reached the server")
	}
	if got := headers.Get("Authorization"); got != "Bearer qstash-token" {
		t.Fatalf("unexpected auth header: %q", got)
	}
	if got := headers.Get("Upstash-Deduplication-Id"); got != "match-1" {
		t.Fatalf("unexpected deduplication header: %q", got)
	}
	if got := headers.Get("Upstash-Delay"); got != "30s" {
		t.Fatalf("unexpected delay header: %q", got)
	}
	if got := headers.Get("Upstash-Retries"); got != "2" {
		t.Fatalf("unexpected retries header: %q", got)
	}
	if got := headers.Get("Upstash-Forward-X-Internal-Job-Token"); got != "job-secret" {
		t.Fatalf("unexpected forwarded job token: %q", got)
	}
}

func TestEnqueue_DeduplicatedSurfacesAlreadyQueued(t *testing.T) {
	p, _ := newTestPublisher(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"messageId":"msg-1","deduplicated":true}`))
	})

	err := p.Enqueue(context.Background(), "/v1/internal/jobs/start-match", nil, 0, "match-1")
	if !errors.Is(err, usecase.ErrJobAlreadyQueued) {
		t.Fatalf("expected ErrJobAlreadyQueued, got %v", err)
	}
}

func TestEnqueue_ServerErrorIsTransient(t *testing.T) {
	p, _ := newTestPublisher(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	err := p.Enqueue(context.Background(), "/v1/internal/jobs/start-match", nil, 0, "match-1")
	if !errors.Is(err, errQStashTransient) {
		t.Fatalf("expected transient error for 502, got %v", err)
	}
}

func TestEnqueue_EmptyPathRejected(t *testing.T) {
	p, _ := newTestPublisher(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected for an empty path")
	})

	if err := p.Enqueue(context.Background(), "  ", nil, 0, ""); err == nil {
		t.Fatal("expected error for empty job path")
	}
}
