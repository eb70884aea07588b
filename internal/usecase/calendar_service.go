package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/ligatr/league-engine/internal/domain/fixture"
	"github.com/ligatr/league-engine/internal/domain/league"
	"github.com/ligatr/league-engine/internal/domain/matchplan"
	"github.com/ligatr/league-engine/internal/domain/schedule"
	"github.com/ligatr/league-engine/internal/domain/slot"
	"github.com/ligatr/league-engine/internal/domain/standing"
	"github.com/ligatr/league-engine/internal/domain/team"
	"github.com/ligatr/league-engine/internal/platform/logging"
)

const (
	fixtureBatchSize     = 50
	calendarWriteWorkers = 4
)

type BuildCalendarInput struct {
	LeagueID string
	Mode     schedule.Mode
	// Force wipes the existing calendar (fixtures, plans) and zeroes the
	// standings before regenerating. Administrative reset path.
	Force bool
}

type BuildCalendarResult struct {
	LeagueID     string `json:"league_id"`
	Rounds       int    `json:"rounds"`
	FixtureCount int    `json:"fixture_count"`
	Skipped      bool   `json:"skipped"`
}

// CalendarService turns a filled league's seat list into its full
// round-robin fixture calendar.
type CalendarService struct {
	leagueRepo   league.Repository
	slotRepo     slot.Repository
	fixtureRepo  fixture.Repository
	planRepo     matchplan.Repository
	standingRepo standing.Repository
	teamRepo     team.Repository
	logger       *logging.Logger
	now          func() time.Time
}

func NewCalendarService(
	leagueRepo league.Repository,
	slotRepo slot.Repository,
	fixtureRepo fixture.Repository,
	planRepo matchplan.Repository,
	standingRepo standing.Repository,
	teamRepo team.Repository,
	logger *logging.Logger,
) *CalendarService {
	if logger == nil {
		logger = logging.Default()
	}
	return &CalendarService{
		leagueRepo:   leagueRepo,
		slotRepo:     slotRepo,
		fixtureRepo:  fixtureRepo,
		planRepo:     planRepo,
		standingRepo: standingRepo,
		teamRepo:     teamRepo,
		logger:       logger,
		now:          time.Now,
	}
}

// BuildCalendar generates and persists the fixture list. Safe to call
// repeatedly: an existing calendar short-circuits unless Force is set,
// and fixture ids are deterministic so a half-written calendar heals on
// the next call.
func (s *CalendarService) BuildCalendar(ctx context.Context, input BuildCalendarInput) (BuildCalendarResult, error) {
	ctx, span := startUsecaseSpan(ctx, "CalendarService.BuildCalendar")
	defer span.End()

	leagueID := strings.TrimSpace(input.LeagueID)
	if leagueID == "" {
		return BuildCalendarResult{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}
	mode, err := schedule.ParseMode(string(input.Mode))
	if err != nil {
		return BuildCalendarResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	item, exists, err := s.leagueRepo.GetByID(ctx, leagueID)
	if err != nil {
		return BuildCalendarResult{}, fmt.Errorf("get league for calendar: %w", err)
	}
	if !exists {
		return BuildCalendarResult{}, fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
	}
	if item.State == league.StateForming {
		return BuildCalendarResult{}, fmt.Errorf("%w: league=%s is still forming", ErrConflict, leagueID)
	}

	hasFixtures, err := s.fixtureRepo.ExistsForLeague(ctx, leagueID)
	if err != nil {
		return BuildCalendarResult{}, fmt.Errorf("check existing calendar: %w", err)
	}
	if hasFixtures && !input.Force {
		return BuildCalendarResult{LeagueID: leagueID, Rounds: item.Rounds, Skipped: true}, nil
	}
	if hasFixtures && input.Force {
		if err := s.wipeCalendar(ctx, leagueID); err != nil {
			return BuildCalendarResult{}, err
		}
	}

	seats, err := s.slotRepo.ListByLeague(ctx, leagueID)
	if err != nil {
		return BuildCalendarResult{}, fmt.Errorf("list seats league=%s: %w", leagueID, err)
	}
	if len(seats) < 2 {
		return BuildCalendarResult{}, fmt.Errorf("%w: league=%s has %d seats, need at least 2", ErrConflict, leagueID, len(seats))
	}

	entries := make([]string, 0, len(seats))
	for _, seat := range seats {
		entries = append(entries, seat.TeamID)
	}
	pairings, err := schedule.GenerateRoundRobin(entries, mode)
	if err != nil {
		return BuildCalendarResult{}, fmt.Errorf("generate round robin league=%s: %w", leagueID, err)
	}

	baseKickoff := league.NextKickoff(s.now().UTC(), item.Timezone, 19)
	if item.KickoffAt != nil && item.KickoffAt.After(s.now().UTC()) {
		baseKickoff = item.KickoffAt.UTC()
	}

	fixtures := buildFixtures(item, pairings, baseKickoff)
	for _, f := range fixtures {
		if err := f.Validate(); err != nil {
			return BuildCalendarResult{}, fmt.Errorf("generated fixture league=%s: %w", leagueID, err)
		}
	}
	if err := s.writeFixtures(ctx, fixtures); err != nil {
		return BuildCalendarResult{}, err
	}

	rounds := schedule.Rounds(len(seats), mode)
	if err := s.leagueRepo.UpdateRounds(ctx, leagueID, rounds); err != nil {
		return BuildCalendarResult{}, fmt.Errorf("record round count league=%s: %w", leagueID, err)
	}
	if err := s.seedStandings(ctx, leagueID, seats, input.Force); err != nil {
		return BuildCalendarResult{}, err
	}

	s.logger.InfoContext(ctx, "calendar built",
		"league_id", leagueID,
		"mode", string(mode),
		"rounds", rounds,
		"fixtures", len(fixtures),
		"forced", input.Force,
	)
	return BuildCalendarResult{LeagueID: leagueID, Rounds: rounds, FixtureCount: len(fixtures)}, nil
}

func buildFixtures(item league.League, pairings []schedule.Pairing, baseKickoff time.Time) []fixture.Fixture {
	out := make([]fixture.Fixture, 0, len(pairings))
	indexInRound := 0
	lastRound := 0
	for _, p := range pairings {
		if p.Round != lastRound {
			lastRound = p.Round
			indexInRound = 0
		}
		indexInRound++
		out = append(out, fixture.Fixture{
			// Deterministic id: rebuilding the same calendar rewrites the
			// same records instead of duplicating them.
			ID:         fmt.Sprintf("%s-r%02d-m%02d", item.ID, p.Round, indexInRound),
			LeagueID:   item.ID,
			Season:     item.Season,
			Round:      p.Round,
			HomeTeamID: p.Home,
			AwayTeamID: p.Away,
			KickoffAt:  baseKickoff.Add(time.Duration(p.Round-1) * 24 * time.Hour),
			Status:     fixture.StatusScheduled,
		})
	}
	return out
}

// writeFixtures persists the calendar in bounded chunks through a worker
// pool, so a 22-team double round robin does not hold one giant insert.
func (s *CalendarService) writeFixtures(ctx context.Context, fixtures []fixture.Fixture) error {
	workerPool, err := ants.NewPool(calendarWriteWorkers)
	if err != nil {
		return fmt.Errorf("start calendar write pool: %w", err)
	}
	defer workerPool.Release()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for start := 0; start < len(fixtures); start += fixtureBatchSize {
		end := start + fixtureBatchSize
		if end > len(fixtures) {
			end = len(fixtures)
		}
		chunk := fixtures[start:end]

		wg.Add(1)
		submitErr := workerPool.Submit(func() {
			defer wg.Done()
			if err := s.fixtureRepo.CreateBatch(ctx, chunk); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = submitErr
			}
			mu.Unlock()
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return fmt.Errorf("persist fixture calendar: %w", firstErr)
	}
	return nil
}

// seedStandings guarantees a zero row per seat. On a forced rebuild the
// rows are reset outright; otherwise only missing rows are added.
func (s *CalendarService) seedStandings(ctx context.Context, leagueID string, seats []slot.Slot, reset bool) error {
	for _, seat := range seats {
		if !reset {
			_, exists, err := s.standingRepo.Get(ctx, leagueID, seat.TeamID)
			if err != nil {
				return fmt.Errorf("check standing row team=%s: %w", seat.TeamID, err)
			}
			if exists {
				continue
			}
		}

		name := seat.TeamID
		if s.teamRepo != nil {
			if record, ok, err := s.teamRepo.GetByID(ctx, seat.TeamID); err == nil && ok {
				name = record.Name
			}
		}
		if err := s.standingRepo.Upsert(ctx, standing.Zero(leagueID, seat.TeamID, name)); err != nil {
			return fmt.Errorf("seed standing row team=%s: %w", seat.TeamID, err)
		}
	}
	return nil
}

// wipeCalendar clears the derived artifacts of a league before a forced
// rebuild. Seats and memberships stay untouched.
func (s *CalendarService) wipeCalendar(ctx context.Context, leagueID string) error {
	if err := s.fixtureRepo.DeleteByLeague(ctx, leagueID); err != nil {
		return fmt.Errorf("wipe fixtures league=%s: %w", leagueID, err)
	}
	if s.planRepo != nil {
		if err := s.planRepo.DeleteByLeague(ctx, leagueID); err != nil {
			return fmt.Errorf("wipe match plans league=%s: %w", leagueID, err)
		}
	}
	return nil
}
