package account

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/ligatr/league-engine/internal/domain/user"
	"github.com/ligatr/league-engine/internal/platform/cache"
	"github.com/ligatr/league-engine/internal/platform/logging"
	"github.com/ligatr/league-engine/internal/platform/resilience"
	"github.com/ligatr/league-engine/internal/usecase"
)

var errAccountTransient = crerr.New("account service transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	IntrospectPath string
	AdminKey       string
	Timeout        time.Duration
	CacheTTL       time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client verifies bearer tokens against the account service. Verified
// principals are cached briefly so a burst of requests from the same
// caller costs one introspection.
type Client struct {
	httpClient     *http.Client
	introspectURL  string
	adminKey       string
	principals     *cache.Store
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewClient(cfg ClientConfig, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 5 * time.Second
	}

	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		introspectURL:  buildURL(cfg.BaseURL, cfg.IntrospectPath),
		adminKey:       strings.TrimSpace(cfg.AdminKey),
		principals:     cache.NewStore(cacheTTL),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type introspectRequest struct {
	Token string `json:"token"`
}

type introspectResponse struct {
	Active bool     `json:"active"`
	UserID string   `json:"user_id"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`
}

func (c *Client) VerifyAccessToken(ctx context.Context, token string) (user.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return user.Principal{}, fmt.Errorf("%w: token is required", usecase.ErrUnauthorized)
	}

	cacheKey := hashToken(token)
	if cached, ok := c.principals.Get(ctx, cacheKey); ok {
		if principal, ok := cached.(user.Principal); ok {
			return principal, nil
		}
	}

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "account circuit breaker rejected request", "state", c.breaker.State())
			return user.Principal{}, fmt.Errorf("%w: account service unavailable: %v", usecase.ErrDependencyUnavailable, err)
		}
	}

	principal, err := c.introspect(ctx, token)
	c.recordCircuitResult(err)
	if err != nil {
		if stderrors.Is(err, errAccountTransient) {
			return user.Principal{}, fmt.Errorf("%w: %v", usecase.ErrDependencyUnavailable, err)
		}
		return user.Principal{}, err
	}

	c.principals.Set(ctx, cacheKey, principal)
	return principal, nil
}

func (c *Client) introspect(ctx context.Context, token string) (user.Principal, error) {
	encoded, err := sonic.Marshal(introspectRequest{Token: token})
	if err != nil {
		return user.Principal{}, crerr.Wrap(err, "marshal introspect request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.introspectURL, strings.NewReader(string(encoded)))
	if err != nil {
		return user.Principal{}, crerr.Wrap(err, "create introspect request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.adminKey != "" {
		req.Header.Set("x-admin-key", c.adminKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return user.Principal{}, fmt.Errorf("%w: %v", errAccountTransient, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusUnauthorized {
		return user.Principal{}, fmt.Errorf("%w: introspection denied", usecase.ErrUnauthorized)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return user.Principal{}, fmt.Errorf("%w: read introspect response: %v", errAccountTransient, err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.WarnContext(ctx, "account introspection non-200", "status_code", resp.StatusCode)
		return user.Principal{}, fmt.Errorf("%w: introspection status %d", errAccountTransient, resp.StatusCode)
	}

	var decoded introspectResponse
	if err := sonic.Unmarshal(body, &decoded); err != nil {
		return user.Principal{}, crerr.Wrap(err, "unmarshal introspect response")
	}

	if !decoded.Active {
		return user.Principal{}, fmt.Errorf("%w: inactive token", usecase.ErrUnauthorized)
	}
	if strings.TrimSpace(decoded.UserID) == "" {
		return user.Principal{}, crerr.New("invalid introspect response: user_id is empty")
	}

	return user.Principal{
		UserID: decoded.UserID,
		Email:  decoded.Email,
		Roles:  decoded.Roles,
	}, nil
}

func (c *Client) recordCircuitResult(err error) {
	if !c.circuitEnabled || c.breaker == nil {
		return
	}
	if err != nil && stderrors.Is(err, errAccountTransient) {
		c.breaker.RecordFailure()
		return
	}
	c.breaker.RecordSuccess()
}
