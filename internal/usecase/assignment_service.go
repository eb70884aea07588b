package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ligatr/league-engine/internal/domain/league"
	"github.com/ligatr/league-engine/internal/domain/slot"
	"github.com/ligatr/league-engine/internal/domain/standing"
	"github.com/ligatr/league-engine/internal/domain/team"
	"github.com/ligatr/league-engine/internal/platform/id"
	"github.com/ligatr/league-engine/internal/platform/logging"
	"github.com/ligatr/league-engine/internal/platform/txn"
)

type AssignmentConfig struct {
	Capacity    int
	Season      int
	Timezone    string
	KickoffHour int
}

func normalizeAssignmentConfig(cfg AssignmentConfig) AssignmentConfig {
	if cfg.Capacity < 2 {
		cfg.Capacity = 22
	}
	if cfg.Season < 1 {
		cfg.Season = 1
	}
	if strings.TrimSpace(cfg.Timezone) == "" {
		cfg.Timezone = "Europe/Istanbul"
	}
	if cfg.KickoffHour <= 0 || cfg.KickoffHour > 23 {
		cfg.KickoffHour = 19
	}
	return cfg
}

type AssignResult struct {
	LeagueID        string `json:"league_id"`
	State           string `json:"state"`
	SlotNumber      int    `json:"slot_number"`
	AlreadyAssigned bool   `json:"already_assigned"`
	LeagueFilled    bool   `json:"league_filled"`
}

// CalendarBuilder is the post-commit hook the assignment flow triggers
// when a league fills up.
type CalendarBuilder interface {
	BuildCalendar(ctx context.Context, input BuildCalendarInput) (BuildCalendarResult, error)
}

// AssignmentService places teams into capacity-bounded leagues. All
// writes of one assignment happen in a single transaction closure; the
// runner retries the closure on conflict, so it re-reads everything it
// decides on.
type AssignmentService struct {
	runner       txn.Runner
	leagueRepo   league.Repository
	slotRepo     slot.Repository
	standingRepo standing.Repository
	teamRepo     team.Repository
	idGen        id.Generator
	calendar     CalendarBuilder
	cfg          AssignmentConfig
	logger       *logging.Logger
	now          func() time.Time
}

func NewAssignmentService(
	runner txn.Runner,
	leagueRepo league.Repository,
	slotRepo slot.Repository,
	standingRepo standing.Repository,
	teamRepo team.Repository,
	idGen id.Generator,
	calendar CalendarBuilder,
	cfg AssignmentConfig,
	logger *logging.Logger,
) *AssignmentService {
	if logger == nil {
		logger = logging.Default()
	}
	return &AssignmentService{
		runner:       runner,
		leagueRepo:   leagueRepo,
		slotRepo:     slotRepo,
		standingRepo: standingRepo,
		teamRepo:     teamRepo,
		idGen:        idGen,
		calendar:     calendar,
		cfg:          normalizeAssignmentConfig(cfg),
		logger:       logger,
		now:          time.Now,
	}
}

// Assign puts one team into a league seat. Calling it again for an
// already-seated team returns the existing seat instead of a second one.
func (s *AssignmentService) Assign(ctx context.Context, teamID string) (AssignResult, error) {
	ctx, span := startUsecaseSpan(ctx, "AssignmentService.Assign")
	defer span.End()

	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return AssignResult{}, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}

	occupant, exists, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return AssignResult{}, fmt.Errorf("get team for assignment: %w", err)
	}
	if !exists {
		return AssignResult{}, fmt.Errorf("%w: team=%s", ErrNotFound, teamID)
	}

	var result AssignResult
	err = s.runner.InTx(ctx, func(ctx context.Context) error {
		result = AssignResult{}

		membership, seated, err := s.slotRepo.GetMembership(ctx, teamID)
		if err != nil {
			return fmt.Errorf("check membership team=%s: %w", teamID, err)
		}
		if seated {
			current, _, err := s.leagueRepo.GetByID(ctx, membership.LeagueID)
			if err != nil {
				return fmt.Errorf("get member league: %w", err)
			}
			result = AssignResult{
				LeagueID:        membership.LeagueID,
				State:           current.State,
				SlotNumber:      membership.SlotNumber,
				AlreadyAssigned: true,
			}
			return nil
		}

		target, err := s.pickTarget(ctx)
		if err != nil {
			return err
		}

		slotNumber := target.MemberCount + 1
		if slotNumber > target.Capacity {
			// Someone filled the last seat between our read and write.
			return txn.ErrConflict
		}

		now := s.now().UTC()
		if err := s.slotRepo.Upsert(ctx, slot.Slot{
			LeagueID: target.ID,
			Number:   slotNumber,
			TeamID:   teamID,
			IsBot:    occupant.IsBot,
			LockedAt: now,
		}); err != nil {
			return fmt.Errorf("claim slot league=%s number=%d: %w", target.ID, slotNumber, err)
		}
		if err := s.slotRepo.CreateMembership(ctx, slot.Membership{
			TeamID:     teamID,
			LeagueID:   target.ID,
			SlotNumber: slotNumber,
			JoinedAt:   now,
		}); err != nil {
			return fmt.Errorf("create membership team=%s: %w", teamID, err)
		}
		if err := s.standingRepo.Upsert(ctx, standing.Zero(target.ID, teamID, occupant.Name)); err != nil {
			return fmt.Errorf("seed standing row team=%s: %w", teamID, err)
		}

		state := target.State
		kickoffAt := target.KickoffAt
		filled := slotNumber >= target.Capacity
		if filled {
			state = league.StateScheduled
			kickoff := league.NextKickoff(now, target.Timezone, s.cfg.KickoffHour)
			kickoffAt = &kickoff
		}
		if err := s.leagueRepo.UpdateMembership(ctx, target.ID, slotNumber, state, kickoffAt); err != nil {
			return fmt.Errorf("update league membership league=%s: %w", target.ID, err)
		}

		result = AssignResult{
			LeagueID:     target.ID,
			State:        state,
			SlotNumber:   slotNumber,
			LeagueFilled: filled,
		}
		return nil
	})
	if err != nil {
		return AssignResult{}, err
	}

	if result.LeagueFilled {
		s.logger.InfoContext(ctx, "league filled", "league_id", result.LeagueID, "capacity", s.cfg.Capacity)
		s.buildCalendarOnce(ctx, result.LeagueID)
	}
	return result, nil
}

// pickTarget finds the league to seat into, creating one when needed. A
// full league still marked forming is repaired in passing.
func (s *AssignmentService) pickTarget(ctx context.Context) (league.League, error) {
	target, found, err := s.leagueRepo.OldestForming(ctx)
	if err != nil {
		return league.League{}, fmt.Errorf("find forming league: %w", err)
	}
	if found && !target.IsFull() {
		return target, nil
	}
	if found && target.IsFull() {
		kickoff := league.NextKickoff(s.now().UTC(), target.Timezone, s.cfg.KickoffHour)
		if err := s.leagueRepo.UpdateMembership(ctx, target.ID, target.MemberCount, league.StateScheduled, &kickoff); err != nil {
			return league.League{}, fmt.Errorf("close out full forming league=%s: %w", target.ID, err)
		}
	}

	newID, err := s.idGen.NewID()
	if err != nil {
		return league.League{}, fmt.Errorf("generate league id: %w", err)
	}
	if len(newID) > 12 {
		newID = newID[:12]
	}
	created := league.League{
		ID:        "lg-" + newID,
		Name:      "League " + strings.ToUpper(newID[:6]),
		Season:    s.cfg.Season,
		Capacity:  s.cfg.Capacity,
		Timezone:  s.cfg.Timezone,
		State:     league.StateForming,
		CreatedAt: s.now().UTC(),
	}
	if err := created.Validate(); err != nil {
		return league.League{}, fmt.Errorf("validate new league: %w", err)
	}
	if err := s.leagueRepo.Create(ctx, created); err != nil {
		return league.League{}, fmt.Errorf("create league: %w", err)
	}
	return created, nil
}

// buildCalendarOnce triggers calendar generation after the filling
// transaction committed. The builder's own existence check makes the
// trigger idempotent; failures are left to the build-calendar job.
func (s *AssignmentService) buildCalendarOnce(ctx context.Context, leagueID string) {
	if s.calendar == nil {
		return
	}
	if _, err := s.calendar.BuildCalendar(ctx, BuildCalendarInput{LeagueID: leagueID}); err != nil {
		s.logger.ErrorContext(ctx, "calendar build after fill failed", "league_id", leagueID, "error", err)
	}
}

type AssignAllResult struct {
	Processed       int              `json:"processed"`
	Assigned        int              `json:"assigned"`
	AlreadyAssigned int              `json:"already_assigned"`
	Failed          int              `json:"failed"`
	Errors          []AssignAllError `json:"errors,omitempty"`
}

type AssignAllError struct {
	TeamID  string `json:"team_id"`
	Message string `json:"message"`
}

// AssignAll backfills a seat for every human team that has none. One bad
// team does not stop the sweep; failures come back per item.
func (s *AssignmentService) AssignAll(ctx context.Context) (AssignAllResult, error) {
	ctx, span := startUsecaseSpan(ctx, "AssignmentService.AssignAll")
	defer span.End()

	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return AssignAllResult{}, fmt.Errorf("list teams for backfill: %w", err)
	}

	var result AssignAllResult
	for _, item := range teams {
		if item.IsBot {
			continue
		}
		result.Processed++

		assigned, err := s.Assign(ctx, item.ID)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, AssignAllError{TeamID: item.ID, Message: err.Error()})
			s.logger.WarnContext(ctx, "backfill assignment failed", "team_id", item.ID, "error", err)
			continue
		}
		if assigned.AlreadyAssigned {
			result.AlreadyAssigned++
			continue
		}
		result.Assigned++
	}
	return result, nil
}
