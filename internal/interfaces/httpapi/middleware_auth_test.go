package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ligatr/league-engine/internal/domain/user"
	"github.com/ligatr/league-engine/internal/usecase"
)

type stubVerifier struct {
	principal user.Principal
	err       error
}

func (v stubVerifier) VerifyAccessToken(_ context.Context, _ string) (user.Principal, error) {
	return v.principal, v.err
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	handler := RequireAuth(stubVerifier{}, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("next handler must not run without credentials")
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/assignments", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestRequireAuth_InvalidScheme(t *testing.T) {
	handler := RequireAuth(stubVerifier{}, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("next handler must not run with a basic auth header")
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/assignments", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestRequireAuth_AttachesPrincipal(t *testing.T) {
	verifier := stubVerifier{principal: user.Principal{UserID: "user-1"}}

	var seen user.Principal
	handler := RequireAuth(verifier, http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen, _ = principalFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/assignments", nil)
	req.Header.Set("Authorization", "Bearer token-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen.UserID != "user-1" {
		t.Fatalf("expected principal user-1 in context, got %q", seen.UserID)
	}
}

func TestRequireAuth_VerifierErrorPassedThrough(t *testing.T) {
	verifier := stubVerifier{err: fmt.Errorf("%w: account service unavailable", usecase.ErrDependencyUnavailable)}
	handler := RequireAuth(verifier, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("next handler must not run when verification fails")
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/assignments", nil)
	req.Header.Set("Authorization", "Bearer token-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
}

func TestRequireInternalJobToken(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		provided   string
		wantStatus int
	}{
		{name: "valid token", configured: "job-secret", provided: "job-secret", wantStatus: http.StatusOK},
		{name: "wrong token", configured: "job-secret", provided: "nope", wantStatus: http.StatusUnauthorized},
		{name: "missing token", configured: "job-secret", provided: "", wantStatus: http.StatusUnauthorized},
		{name: "unconfigured", configured: "", provided: "anything", wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireInternalJobToken(tt.configured, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/run-day", nil)
			if tt.provided != "" {
				req.Header.Set("X-Internal-Job-Token", tt.provided)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}
