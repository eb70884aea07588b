package simengine

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

	"github.com/ligatr/league-engine/internal/domain/fixture"
	"github.com/ligatr/league-engine/internal/domain/league"
	"github.com/ligatr/league-engine/internal/domain/matchplan"
	"github.com/ligatr/league-engine/internal/platform/logging"
	"github.com/ligatr/league-engine/internal/platform/resilience"
)

const simulationsPath = "/v1/simulations"

var errEngineTransient = crerr.New("simulation engine transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Token          string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client submits started matches to the external simulation engine. The
// engine runs asynchronously and reports back by uploading a result
// artifact; submission itself is fire-and-forget.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	token          string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 15 * time.Second
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:          strings.TrimSpace(cfg.Token),
		maxRetries:     max(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// matchSpec is the version 1 submission body. rngSeed pins the engine to
// the deterministic outcome the finalizer would compute on its own.
type matchSpec struct {
	Version    int      `json:"version"`
	MatchID    string   `json:"matchId"`
	LeagueID   string   `json:"leagueId"`
	SeasonID   string   `json:"seasonId"`
	KickoffUTC string   `json:"kickoffUtc"`
	RNGSeed    int64    `json:"rngSeed"`
	Home       sideSpec `json:"home"`
	Away       sideSpec `json:"away"`
}

type sideSpec struct {
	TeamID    string       `json:"teamId"`
	Name      string       `json:"name,omitempty"`
	Formation string       `json:"formation,omitempty"`
	Tactics   string       `json:"tactics,omitempty"`
	Starters  []playerSpec `json:"starters,omitempty"`
	Bench     []playerSpec `json:"bench,omitempty"`
}

type playerSpec struct {
	PlayerID string   `json:"playerId"`
	Position string   `json:"position,omitempty"`
	Rating   int      `json:"rating,omitempty"`
	Stamina  int      `json:"stamina,omitempty"`
	Traits   []string `json:"traits,omitempty"`
}

func (c *Client) DispatchMatch(ctx context.Context, match fixture.Fixture, plan matchplan.Plan) error {
	if c.baseURL == "" {
		return crerr.New("simulation engine base url is not configured")
	}
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "simulation engine circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("simulation engine is temporarily unavailable: %w", err)
		}
	}

	spec := matchSpec{
		Version:    1,
		MatchID:    match.ID,
		LeagueID:   match.LeagueID,
		SeasonID:   league.SeasonCode(match.Season),
		KickoffUTC: match.KickoffAt.UTC().Format(time.RFC3339),
		RNGSeed:    fixture.Seed(match.LeagueID, match.ID),
		Home:       sideSpecFromPlan(plan.Home),
		Away:       sideSpecFromPlan(plan.Away),
	}
	body, err := sonic.Marshal(spec)
	if err != nil {
		return crerr.Wrap(err, "marshal match spec")
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		err := c.submit(ctx, body)
		c.recordCircuitResult(err)
		if err == nil {
			c.logger.InfoContext(ctx, "match submitted to simulation engine",
				"match_id", match.ID, "league_id", match.LeagueID, "attempt", attempt+1)
			return nil
		}
		lastErr = err
		if !stderrors.Is(err, errEngineTransient) {
			return err
		}
		c.logger.WarnContext(ctx, "simulation engine submit failed, retrying",
			"match_id", match.ID, "attempt", attempt+1, "error", err)
	}
	return fmt.Errorf("submit match %s: %w", match.ID, lastErr)
}

func (c *Client) submit(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+simulationsPath, strings.NewReader(string(body)))
	if err != nil {
		return crerr.Wrap(err, "create engine request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", errEngineTransient, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 == 2 {
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if isRetryableStatus(resp.StatusCode) {
		return fmt.Errorf("%w: status=%d body=%s", errEngineTransient, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return fmt.Errorf("submit simulation status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(raw)))
}

func sideSpecFromPlan(side matchplan.Side) sideSpec {
	return sideSpec{
		TeamID:    side.TeamID,
		Name:      side.Name,
		Formation: side.Formation,
		Tactics:   side.Tactics,
		Starters:  playerSpecsFromPlan(side.Starters),
		Bench:     playerSpecsFromPlan(side.Bench),
	}
}

func playerSpecsFromPlan(players []matchplan.PlannedPlayer) []playerSpec {
	if len(players) == 0 {
		return nil
	}
	out := make([]playerSpec, 0, len(players))
	for _, p := range players {
		out = append(out, playerSpec{
			PlayerID: p.PlayerID,
			Position: p.Position,
			Rating:   p.Rating,
			Stamina:  p.Stamina,
			Traits:   p.Traits,
		})
	}
	return out
}

func (c *Client) recordCircuitResult(err error) {
	if !c.circuitEnabled || c.breaker == nil {
		return
	}
	if err != nil && stderrors.Is(err, errEngineTransient) {
		c.breaker.RecordFailure()
		return
	}
	c.breaker.RecordSuccess()
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}
