package usecase

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/ligatr/league-engine/internal/domain/fixture"
	"github.com/ligatr/league-engine/internal/domain/league"
	"github.com/ligatr/league-engine/internal/domain/matchplan"
	"github.com/ligatr/league-engine/internal/domain/oplock"
	"github.com/ligatr/league-engine/internal/domain/team"
	"github.com/ligatr/league-engine/internal/platform/logging"
	"github.com/ligatr/league-engine/internal/platform/txn"
)

const (
	runDayWorkflow = "run-day"
	dayKeyLayout   = "2006-01-02"

	startMatchJobPath = "/v1/internal/jobs/start-match"
)

// ErrJobAlreadyQueued marks a publish rejected because the queue already
// holds a message with the same deduplication id. For an at-least-once
// channel that is success, not failure.
var ErrJobAlreadyQueued = errors.New("job already queued")

// JobQueue is the at-least-once task channel. Enqueue with an id the
// queue has seen returns ErrJobAlreadyQueued (or nil, depending on the
// backend); both count as delivered.
type JobQueue interface {
	Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error
}

type noopJobQueue struct{}

func (noopJobQueue) Enqueue(_ context.Context, _ string, _ any, _ time.Duration, _ string) error {
	return nil
}

func NewNoopJobQueue() JobQueue {
	return noopJobQueue{}
}

// SimulationDispatcher hands a started match to the external engine.
type SimulationDispatcher interface {
	DispatchMatch(ctx context.Context, match fixture.Fixture, plan matchplan.Plan) error
}

// InstantSettler closes a match without the external engine; implemented
// by the finalize service.
type InstantSettler interface {
	SettleInstant(ctx context.Context, matchID string) (FinalizeResult, error)
}

type DispatchConfig struct {
	ShardCount int
	Timezone   string
}

func normalizeDispatchConfig(cfg DispatchConfig) DispatchConfig {
	if cfg.ShardCount < 1 {
		cfg.ShardCount = 4
	}
	if strings.TrimSpace(cfg.Timezone) == "" {
		cfg.Timezone = "Europe/Istanbul"
	}
	return cfg
}

// DispatchService runs the daily fan-out: find the day's scheduled
// matches, shard them by league, and push one start-match job per match
// onto the queue with the match id as deduplication key.
type DispatchService struct {
	runner      txn.Runner
	oplockRepo  oplock.Repository
	fixtureRepo fixture.Repository
	leagueRepo  league.Repository
	teamRepo    team.Repository
	planRepo    matchplan.Repository
	queue       JobQueue
	sim         SimulationDispatcher
	settler     InstantSettler
	cfg         DispatchConfig
	logger      *logging.Logger
	now         func() time.Time
}

func NewDispatchService(
	runner txn.Runner,
	oplockRepo oplock.Repository,
	fixtureRepo fixture.Repository,
	leagueRepo league.Repository,
	teamRepo team.Repository,
	planRepo matchplan.Repository,
	queue JobQueue,
	sim SimulationDispatcher,
	settler InstantSettler,
	cfg DispatchConfig,
	logger *logging.Logger,
) *DispatchService {
	if queue == nil {
		queue = NewNoopJobQueue()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DispatchService{
		runner:      runner,
		oplockRepo:  oplockRepo,
		fixtureRepo: fixtureRepo,
		leagueRepo:  leagueRepo,
		teamRepo:    teamRepo,
		planRepo:    planRepo,
		queue:       queue,
		sim:         sim,
		settler:     settler,
		cfg:         normalizeDispatchConfig(cfg),
		logger:      logger,
		now:         time.Now,
	}
}

type DayRequest struct {
	// DayKey selects the day to dispatch, formatted 2006-01-02 in the
	// configured timezone. Empty means today.
	DayKey string
	// InstantSettle bypasses the queue and engine, settling every match
	// with a deterministic placeholder result.
	InstantSettle bool
	// Force skips the per-day lock; a redrive after a broken run.
	Force bool
}

type DayResult struct {
	DayKey     string `json:"day_key"`
	Skipped    bool   `json:"skipped"`
	MatchCount int    `json:"match_count"`
	Dispatched int    `json:"dispatched"`
	Settled    int    `json:"settled"`
	Failed     int    `json:"failed"`
}

// RunDaily is the daily trigger's handler. The per-day lock makes double
// triggers harmless; individual match failures are counted and logged
// but never abort the sweep, the queue's retries and the watchdog own
// the stragglers.
func (s *DispatchService) RunDaily(ctx context.Context, req DayRequest) (DayResult, error) {
	ctx, span := startUsecaseSpan(ctx, "DispatchService.RunDaily")
	defer span.End()

	loc, err := time.LoadLocation(s.cfg.Timezone)
	if err != nil {
		return DayResult{}, fmt.Errorf("load dispatch timezone %q: %w", s.cfg.Timezone, err)
	}

	dayKey := strings.TrimSpace(req.DayKey)
	if dayKey == "" {
		dayKey = s.now().In(loc).Format(dayKeyLayout)
	}
	day, err := time.ParseInLocation(dayKeyLayout, dayKey, loc)
	if err != nil {
		return DayResult{}, fmt.Errorf("%w: day key %q must be formatted %s", ErrInvalidInput, dayKey, dayKeyLayout)
	}

	if !req.Force {
		acquired, err := s.oplockRepo.Acquire(ctx, runDayWorkflow, dayKey)
		if err != nil {
			return DayResult{}, fmt.Errorf("acquire daily lock day=%s: %w", dayKey, err)
		}
		if !acquired {
			s.logger.InfoContext(ctx, "daily dispatch already ran", "day_key", dayKey)
			return DayResult{DayKey: dayKey, Skipped: true}, nil
		}
	}

	from := day.UTC()
	to := day.Add(24 * time.Hour).UTC()
	matches, err := s.fixtureRepo.ListScheduledInWindow(ctx, from, to)
	if err != nil {
		return DayResult{}, fmt.Errorf("list scheduled matches day=%s: %w", dayKey, err)
	}

	result := DayResult{DayKey: dayKey, MatchCount: len(matches)}
	if len(matches) == 0 {
		s.writeHeartbeat(ctx, dayKey, 0, 0, "no matches scheduled")
		return result, nil
	}

	shards := make([][]fixture.Fixture, s.cfg.ShardCount)
	for _, match := range matches {
		n := shardOf(match.LeagueID, s.cfg.ShardCount)
		shards[n] = append(shards[n], match)
	}

	var mu sync.Mutex
	workers := pool.New().WithContext(ctx).WithMaxGoroutines(s.cfg.ShardCount)
	for shardIndex, shard := range shards {
		if len(shard) == 0 {
			continue
		}
		shardIndex, shard := shardIndex, shard
		workers.Go(func(ctx context.Context) error {
			dispatched, settled, failed := s.runShard(ctx, shardIndex, shard, req.InstantSettle)
			mu.Lock()
			result.Dispatched += dispatched
			result.Settled += settled
			result.Failed += failed
			mu.Unlock()
			return nil
		})
	}
	if err := workers.Wait(); err != nil {
		return DayResult{}, fmt.Errorf("dispatch fan-out day=%s: %w", dayKey, err)
	}

	notes := ""
	if result.Failed > 0 {
		notes = fmt.Sprintf("%d matches failed to dispatch", result.Failed)
	}
	s.writeHeartbeat(ctx, dayKey, result.Dispatched, result.Settled, notes)

	s.logger.InfoContext(ctx, "daily dispatch finished",
		"day_key", dayKey,
		"matches", result.MatchCount,
		"dispatched", result.Dispatched,
		"settled", result.Settled,
		"failed", result.Failed,
	)
	return result, nil
}

func (s *DispatchService) runShard(ctx context.Context, shardIndex int, shard []fixture.Fixture, instant bool) (dispatched, settled, failed int) {
	for _, match := range shard {
		if instant {
			if _, err := s.settleInstant(ctx, match.ID); err != nil {
				failed++
				s.logger.ErrorContext(ctx, "instant settle failed",
					"match_id", match.ID, "league_id", match.LeagueID, "shard", shardIndex, "error", err)
				continue
			}
			settled++
			continue
		}

		payload := map[string]any{
			"matchId":  match.ID,
			"leagueId": match.LeagueID,
			"shard":    shardIndex,
		}
		err := s.queue.Enqueue(ctx, fmt.Sprintf("%s?shard=%d", startMatchJobPath, shardIndex), payload, 0, match.ID)
		if err != nil && !errors.Is(err, ErrJobAlreadyQueued) {
			failed++
			s.logger.ErrorContext(ctx, "start-match enqueue failed",
				"match_id", match.ID, "league_id", match.LeagueID, "shard", shardIndex, "error", err)
			continue
		}
		dispatched++
	}
	return dispatched, settled, failed
}

func (s *DispatchService) settleInstant(ctx context.Context, matchID string) (FinalizeResult, error) {
	if s.settler == nil {
		return FinalizeResult{}, fmt.Errorf("%w: instant settle requested without a finalizer", ErrDependencyUnavailable)
	}
	return s.settler.SettleInstant(ctx, matchID)
}

func (s *DispatchService) writeHeartbeat(ctx context.Context, dayKey string, dispatched, settled int, notes string) {
	hb := oplock.Heartbeat{
		DayKey:          dayKey,
		DispatchedCount: dispatched,
		SettledCount:    settled,
		Notes:           notes,
		UpdatedAt:       s.now().UTC(),
	}
	if err := s.oplockRepo.UpsertHeartbeat(ctx, hb); err != nil {
		s.logger.WarnContext(ctx, "daily heartbeat write failed", "day_key", dayKey, "error", err)
	}
}

func shardOf(leagueID string, shardCount int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(leagueID))
	return int(h.Sum32() % uint32(shardCount))
}

type StartMatchResult struct {
	MatchID  string `json:"match_id"`
	LeagueID string `json:"league_id"`
	Started  bool   `json:"started"`
	Status   string `json:"status"`
}

// StartMatch is the queue's delivery handler, safe under redelivery: a
// match already running or played is acknowledged without side effects.
func (s *DispatchService) StartMatch(ctx context.Context, matchID, leagueID string) (StartMatchResult, error) {
	ctx, span := startUsecaseSpan(ctx, "DispatchService.StartMatch")
	defer span.End()

	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return StartMatchResult{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	var result StartMatchResult
	var startedMatch fixture.Fixture
	var plan matchplan.Plan
	err := s.runner.InTx(ctx, func(ctx context.Context) error {
		result = StartMatchResult{MatchID: matchID}

		match, found, err := s.fixtureRepo.GetByID(ctx, matchID)
		if err != nil {
			return fmt.Errorf("get match: %w", err)
		}
		if !found {
			return fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
		}
		if leagueID != "" && match.LeagueID != leagueID {
			return fmt.Errorf("%w: match=%s does not belong to league=%s", ErrInvalidInput, matchID, leagueID)
		}
		result.LeagueID = match.LeagueID
		result.Status = match.Status

		switch match.Status {
		case fixture.StatusRunning, fixture.StatusPlayed:
			// Redelivery of a job that already did its work.
			return nil
		case fixture.StatusScheduled, fixture.StatusFailed:
		default:
			return fmt.Errorf("%w: match=%s has unknown status %q", ErrConflict, matchID, match.Status)
		}

		built, err := s.buildPlan(ctx, match)
		if err != nil {
			return err
		}
		if _, err := s.planRepo.CreateIfAbsent(ctx, built); err != nil {
			return fmt.Errorf("persist match plan: %w", err)
		}

		startedAt := s.now().UTC()
		if err := s.fixtureRepo.MarkRunning(ctx, matchID, startedAt); err != nil {
			return fmt.Errorf("mark match running: %w", err)
		}

		lg, found, err := s.leagueRepo.GetByID(ctx, match.LeagueID)
		if err != nil {
			return fmt.Errorf("get league for activation: %w", err)
		}
		if found && league.CanTransition(lg.State, league.StateActive) {
			if err := s.leagueRepo.UpdateState(ctx, lg.ID, league.StateActive); err != nil {
				return fmt.Errorf("activate league: %w", err)
			}
		}

		match.Status = fixture.StatusRunning
		match.StartedAt = &startedAt
		startedMatch = match
		plan = built
		result.Started = true
		result.Status = fixture.StatusRunning
		return nil
	})
	if err != nil {
		return StartMatchResult{}, err
	}

	if result.Started && s.sim != nil {
		// The match is committed as running either way; a dispatch failure
		// here is picked up by the backfill/watchdog pair, never rolled back.
		if err := s.sim.DispatchMatch(ctx, startedMatch, plan); err != nil {
			s.logger.ErrorContext(ctx, "simulation dispatch failed",
				"match_id", matchID, "league_id", result.LeagueID, "error", err)
		}
	}
	return result, nil
}

// buildPlan freezes both lineups. A missing team record degrades to a
// bare side with just the id; the engine tolerates that.
func (s *DispatchService) buildPlan(ctx context.Context, match fixture.Fixture) (matchplan.Plan, error) {
	home, err := s.planSide(ctx, match.HomeTeamID)
	if err != nil {
		return matchplan.Plan{}, err
	}
	away, err := s.planSide(ctx, match.AwayTeamID)
	if err != nil {
		return matchplan.Plan{}, err
	}
	return matchplan.Plan{
		MatchID:   match.ID,
		LeagueID:  match.LeagueID,
		CreatedAt: s.now().UTC(),
		Home:      home,
		Away:      away,
	}, nil
}

func (s *DispatchService) planSide(ctx context.Context, teamID string) (matchplan.Side, error) {
	record, found, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return matchplan.Side{}, fmt.Errorf("get team for plan team=%s: %w", teamID, err)
	}
	if !found {
		return matchplan.Side{TeamID: teamID, Name: teamID}, nil
	}

	starters, bench := record.Lineup()
	return matchplan.Side{
		TeamID:    record.ID,
		Name:      record.Name,
		Formation: record.Formation,
		Tactics:   record.Tactics,
		Starters:  plannedPlayers(starters),
		Bench:     plannedPlayers(bench),
	}, nil
}

func plannedPlayers(players []team.Player) []matchplan.PlannedPlayer {
	out := make([]matchplan.PlannedPlayer, 0, len(players))
	for _, p := range players {
		out = append(out, matchplan.PlannedPlayer{
			PlayerID: p.ID,
			Position: p.Position,
			Rating:   p.Rating,
			Stamina:  p.Stamina,
			Traits:   p.Traits,
		})
	}
	return out
}
