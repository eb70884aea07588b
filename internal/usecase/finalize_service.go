package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/ligatr/league-engine/internal/domain/fixture"
	"github.com/ligatr/league-engine/internal/domain/league"
	"github.com/ligatr/league-engine/internal/domain/standing"
	"github.com/ligatr/league-engine/internal/domain/team"
	"github.com/ligatr/league-engine/internal/domain/timeline"
	"github.com/ligatr/league-engine/internal/platform/logging"
	"github.com/ligatr/league-engine/internal/platform/txn"
)

// ArtifactStore reads and writes result artifacts (S3/R2 compatible).
type ArtifactStore interface {
	Get(ctx context.Context, path string) ([]byte, error)
	Put(ctx context.Context, path string, body []byte, contentType string) error
}

// FinalizeService turns finished simulations into final scores, updated
// standings and a completed-league rollup. Every entry point is
// idempotent: a match already played is acknowledged without rewrites.
type FinalizeService struct {
	runner       txn.Runner
	fixtureRepo  fixture.Repository
	standingRepo standing.Repository
	leagueRepo   league.Repository
	teamRepo     team.Repository
	store        ArtifactStore
	logger       *logging.Logger
	now          func() time.Time
}

func NewFinalizeService(
	runner txn.Runner,
	fixtureRepo fixture.Repository,
	standingRepo standing.Repository,
	leagueRepo league.Repository,
	teamRepo team.Repository,
	store ArtifactStore,
	logger *logging.Logger,
) *FinalizeService {
	if logger == nil {
		logger = logging.Default()
	}
	return &FinalizeService{
		runner:       runner,
		fixtureRepo:  fixtureRepo,
		standingRepo: standingRepo,
		leagueRepo:   leagueRepo,
		teamRepo:     teamRepo,
		store:        store,
		logger:       logger,
		now:          time.Now,
	}
}

type FinalizeResult struct {
	MatchID         string `json:"match_id"`
	LeagueID        string `json:"league_id"`
	HomeScore       int    `json:"home_score"`
	AwayScore       int    `json:"away_score"`
	AlreadyFinal    bool   `json:"already_final"`
	LeagueCompleted bool   `json:"league_completed"`
}

// resultArtifact is the engine's output document. Older engine builds
// wrote short score keys, so both spellings are accepted.
type resultArtifact struct {
	Version   int              `json:"version"`
	MatchID   string           `json:"matchId"`
	LeagueID  string           `json:"leagueId"`
	Score     artifactScore    `json:"score"`
	Events    []timeline.Event `json:"events,omitempty"`
	SettledAt string           `json:"settledAt,omitempty"`
}

type artifactScore struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
	H    *int `json:"h"`
	A    *int `json:"a"`
}

func (s artifactScore) normalize() (home, away int, err error) {
	switch {
	case s.Home != nil && s.Away != nil:
		home, away = *s.Home, *s.Away
	case s.H != nil && s.A != nil:
		home, away = *s.H, *s.A
	default:
		return 0, 0, fmt.Errorf("artifact score needs home/away or h/a")
	}
	if home < 0 || away < 0 {
		return 0, 0, fmt.Errorf("artifact score must be non-negative, got %d:%d", home, away)
	}
	return home, away, nil
}

// FinalizeFromArtifact handles a storage event for a written result
// document under results/{season}/{league}/{match}.json.
func (s *FinalizeService) FinalizeFromArtifact(ctx context.Context, path string) (FinalizeResult, error) {
	ctx, span := startUsecaseSpan(ctx, "FinalizeService.FinalizeFromArtifact")
	defer span.End()

	_, leagueID, matchID, err := fixture.ParseArtifactPath(path)
	if err != nil {
		return FinalizeResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if s.store == nil {
		return FinalizeResult{}, fmt.Errorf("%w: artifact store is not configured", ErrDependencyUnavailable)
	}
	raw, err := s.store.Get(ctx, path)
	if err != nil {
		return FinalizeResult{}, fmt.Errorf("fetch result artifact %s: %w", path, err)
	}

	var doc resultArtifact
	if err := sonic.Unmarshal(raw, &doc); err != nil {
		return FinalizeResult{}, fmt.Errorf("%w: decode result artifact %s: %v", ErrInvalidInput, path, err)
	}
	if doc.MatchID != "" && doc.MatchID != matchID {
		return FinalizeResult{}, fmt.Errorf("%w: artifact path names match=%s but body names match=%s", ErrInvalidInput, matchID, doc.MatchID)
	}
	if doc.LeagueID != "" && doc.LeagueID != leagueID {
		return FinalizeResult{}, fmt.Errorf("%w: artifact path names league=%s but body names league=%s", ErrInvalidInput, leagueID, doc.LeagueID)
	}
	home, away, err := doc.Score.normalize()
	if err != nil {
		return FinalizeResult{}, fmt.Errorf("%w: artifact %s: %v", ErrInvalidInput, path, err)
	}

	return s.applyResult(ctx, matchID, home, away, strings.TrimPrefix(path, "/"))
}

// SettleInstant fabricates a deterministic placeholder result for a match
// and finalizes it, writing the same artifact shape the engine would.
func (s *FinalizeService) SettleInstant(ctx context.Context, matchID string) (FinalizeResult, error) {
	ctx, span := startUsecaseSpan(ctx, "FinalizeService.SettleInstant")
	defer span.End()

	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return FinalizeResult{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	match, found, err := s.fixtureRepo.GetByID(ctx, matchID)
	if err != nil {
		return FinalizeResult{}, fmt.Errorf("get match for settle: %w", err)
	}
	if !found {
		return FinalizeResult{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}
	if match.Status == fixture.StatusPlayed {
		return s.alreadyFinalResult(match), nil
	}

	seedKey := fixture.SeedKey(match.LeagueID, match.ID)
	home, away := timeline.RandomScore(seedKey)
	path := fixture.ArtifactPath(league.SeasonCode(match.Season), match.LeagueID, match.ID)

	s.writeArtifact(ctx, path, resultArtifact{
		Version:   1,
		MatchID:   match.ID,
		LeagueID:  match.LeagueID,
		Score:     artifactScore{Home: &home, Away: &away},
		Events:    timeline.Generate(seedKey, home, away),
		SettledAt: s.now().UTC().Format(time.RFC3339),
	})

	return s.applyResult(ctx, matchID, home, away, path)
}

// writeArtifact keeps an audit copy of fabricated results. Best effort:
// the settle proceeds even when storage is down.
func (s *FinalizeService) writeArtifact(ctx context.Context, path string, doc resultArtifact) {
	if s.store == nil {
		return
	}
	body, err := sonic.Marshal(doc)
	if err != nil {
		s.logger.WarnContext(ctx, "encode result artifact failed", "path", path, "error", err)
		return
	}
	if err := s.store.Put(ctx, path, body, "application/json"); err != nil {
		s.logger.WarnContext(ctx, "store result artifact failed", "path", path, "error", err)
	}
}

// applyResult is the single write path for final scores. The transaction
// flips the fixture and folds the score into both standings rows; the
// completed-league rollup runs after commit because it only reads.
func (s *FinalizeService) applyResult(ctx context.Context, matchID string, homeScore, awayScore int, replayPath string) (FinalizeResult, error) {
	var result FinalizeResult
	err := s.runner.InTx(ctx, func(ctx context.Context) error {
		result = FinalizeResult{MatchID: matchID}

		match, found, err := s.fixtureRepo.GetByID(ctx, matchID)
		if err != nil {
			return fmt.Errorf("get match for finalize: %w", err)
		}
		if !found {
			return fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
		}
		result.LeagueID = match.LeagueID

		if match.Status == fixture.StatusPlayed {
			result = s.alreadyFinalResult(match)
			return nil
		}

		endedAt := s.now().UTC()
		if err := s.fixtureRepo.MarkPlayed(ctx, matchID, homeScore, awayScore, endedAt, replayPath); err != nil {
			return fmt.Errorf("mark match played: %w", err)
		}
		if err := s.foldStanding(ctx, match.LeagueID, match.HomeTeamID, homeScore, awayScore); err != nil {
			return err
		}
		if err := s.foldStanding(ctx, match.LeagueID, match.AwayTeamID, awayScore, homeScore); err != nil {
			return err
		}

		result.HomeScore = homeScore
		result.AwayScore = awayScore
		return nil
	})
	if err != nil {
		return FinalizeResult{}, err
	}

	if !result.AlreadyFinal {
		result.LeagueCompleted = s.rollupCompleted(ctx, result.LeagueID)
		s.logger.InfoContext(ctx, "match finalized",
			"match_id", matchID,
			"league_id", result.LeagueID,
			"score", fmt.Sprintf("%d:%d", result.HomeScore, result.AwayScore),
			"league_completed", result.LeagueCompleted,
		)
	}
	return result, nil
}

func (s *FinalizeService) alreadyFinalResult(match fixture.Fixture) FinalizeResult {
	result := FinalizeResult{
		MatchID:      match.ID,
		LeagueID:     match.LeagueID,
		AlreadyFinal: true,
	}
	if match.HomeScore != nil {
		result.HomeScore = *match.HomeScore
	}
	if match.AwayScore != nil {
		result.AwayScore = *match.AwayScore
	}
	return result
}

func (s *FinalizeService) foldStanding(ctx context.Context, leagueID, teamID string, goalsFor, goalsAgainst int) error {
	row, found, err := s.standingRepo.Get(ctx, leagueID, teamID)
	if err != nil {
		return fmt.Errorf("get standing team=%s: %w", teamID, err)
	}
	if !found {
		name := teamID
		if record, ok, err := s.teamRepo.GetByID(ctx, teamID); err == nil && ok {
			name = record.Name
		}
		row = standing.Zero(leagueID, teamID, name)
	}
	row.ApplyResult(goalsFor, goalsAgainst)
	if err := s.standingRepo.Upsert(ctx, row); err != nil {
		return fmt.Errorf("write standing team=%s: %w", teamID, err)
	}
	return nil
}

// rollupCompleted flips an active league to completed once nothing
// unfinished remains. Best effort; the next finalize retries it.
func (s *FinalizeService) rollupCompleted(ctx context.Context, leagueID string) bool {
	remaining, err := s.fixtureRepo.CountUnfinishedByLeague(ctx, leagueID)
	if err != nil {
		s.logger.WarnContext(ctx, "count unfinished matches failed", "league_id", leagueID, "error", err)
		return false
	}
	if remaining > 0 {
		return false
	}

	lg, found, err := s.leagueRepo.GetByID(ctx, leagueID)
	if err != nil || !found {
		return false
	}
	if !league.CanTransition(lg.State, league.StateCompleted) {
		return lg.State == league.StateCompleted
	}
	if err := s.leagueRepo.UpdateState(ctx, leagueID, league.StateCompleted); err != nil {
		s.logger.WarnContext(ctx, "league completion rollup failed", "league_id", leagueID, "error", err)
		return false
	}
	s.logger.InfoContext(ctx, "league completed", "league_id", leagueID)
	return true
}

type BackfillRequest struct {
	// Cutoff settles matches whose kickoff (scheduled) or start (running)
	// is older. Zero means now.
	Cutoff     time.Time
	MaxMatches int
	DryRun     bool
}

type BackfillResult struct {
	Candidates []string `json:"candidates"`
	Settled    int      `json:"settled"`
	Failed     int      `json:"failed"`
	DryRun     bool     `json:"dry_run"`
}

// Backfill settles matches the normal pipeline left behind: scheduled
// ones whose kickoff passed, and running ones that never finalized.
func (s *FinalizeService) Backfill(ctx context.Context, req BackfillRequest) (BackfillResult, error) {
	ctx, span := startUsecaseSpan(ctx, "FinalizeService.Backfill")
	defer span.End()

	cutoff := req.Cutoff
	if cutoff.IsZero() {
		cutoff = s.now().UTC()
	}
	maxMatches := req.MaxMatches
	if maxMatches <= 0 {
		maxMatches = 200
	}

	overdue, err := s.fixtureRepo.ListScheduledBefore(ctx, cutoff, maxMatches)
	if err != nil {
		return BackfillResult{}, fmt.Errorf("list overdue scheduled matches: %w", err)
	}
	stuck, err := s.fixtureRepo.ListRunningStartedBefore(ctx, cutoff)
	if err != nil {
		return BackfillResult{}, fmt.Errorf("list stuck running matches: %w", err)
	}

	candidates := make([]fixture.Fixture, 0, len(overdue)+len(stuck))
	candidates = append(candidates, overdue...)
	for _, item := range stuck {
		if len(candidates) >= maxMatches {
			break
		}
		candidates = append(candidates, item)
	}
	if len(candidates) > maxMatches {
		candidates = candidates[:maxMatches]
	}

	result := BackfillResult{DryRun: req.DryRun, Candidates: make([]string, 0, len(candidates))}
	for _, item := range candidates {
		result.Candidates = append(result.Candidates, item.ID)
	}
	if req.DryRun {
		return result, nil
	}

	for _, item := range candidates {
		if _, err := s.SettleInstant(ctx, item.ID); err != nil {
			result.Failed++
			s.logger.ErrorContext(ctx, "backfill settle failed", "match_id", item.ID, "error", err)
			continue
		}
		result.Settled++
	}
	return result, nil
}
