package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ligatr/league-engine/internal/domain/fixture"
	"github.com/ligatr/league-engine/internal/domain/slot"
	"github.com/ligatr/league-engine/internal/domain/standing"
	"github.com/ligatr/league-engine/internal/domain/team"
	"github.com/ligatr/league-engine/internal/platform/logging"
	"github.com/ligatr/league-engine/internal/platform/txn"
)

const fixtureRewriteChunk = 25

// SlotService hands numbered seats over between fillers and humans and
// repairs teams that ended up seated in more than one league.
type SlotService struct {
	runner       txn.Runner
	slotRepo     slot.Repository
	teamRepo     team.Repository
	standingRepo standing.Repository
	fixtureRepo  fixture.Repository
	bots         *BotService
	logger       *logging.Logger
	now          func() time.Time
}

func NewSlotService(
	runner txn.Runner,
	slotRepo slot.Repository,
	teamRepo team.Repository,
	standingRepo standing.Repository,
	fixtureRepo fixture.Repository,
	bots *BotService,
	logger *logging.Logger,
) *SlotService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SlotService{
		runner:       runner,
		slotRepo:     slotRepo,
		teamRepo:     teamRepo,
		standingRepo: standingRepo,
		fixtureRepo:  fixtureRepo,
		bots:         bots,
		logger:       logger,
		now:          time.Now,
	}
}

type ClaimSlotResult struct {
	LeagueID     string `json:"league_id"`
	SlotNumber   int    `json:"slot_number"`
	ReplacedTeam string `json:"replaced_team"`
	RewrittenFix int    `json:"rewritten_fixtures"`
}

// ClaimSlot swaps the filler occupying a numbered seat for a human team.
// The seat, membership and standings move inside one transaction; the
// fixture references are rewritten afterwards in chunks, since the
// calendar can be large and every rewrite is idempotent.
func (s *SlotService) ClaimSlot(ctx context.Context, leagueID string, slotNumber int, teamID string) (ClaimSlotResult, error) {
	ctx, span := startUsecaseSpan(ctx, "SlotService.ClaimSlot")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	teamID = strings.TrimSpace(teamID)
	claim := slot.Slot{LeagueID: leagueID, Number: slotNumber, TeamID: teamID}
	if err := claim.Validate(); err != nil {
		return ClaimSlotResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	claimant, exists, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return ClaimSlotResult{}, fmt.Errorf("get claiming team: %w", err)
	}
	if !exists {
		return ClaimSlotResult{}, fmt.Errorf("%w: team=%s", ErrNotFound, teamID)
	}

	var result ClaimSlotResult
	err = s.runner.InTx(ctx, func(ctx context.Context) error {
		seat, found, err := s.slotRepo.Get(ctx, leagueID, slotNumber)
		if err != nil {
			return fmt.Errorf("get slot league=%s number=%d: %w", leagueID, slotNumber, err)
		}
		if !found {
			return fmt.Errorf("%w: slot league=%s number=%d", ErrNotFound, leagueID, slotNumber)
		}
		if seat.TeamID == teamID {
			result = ClaimSlotResult{LeagueID: leagueID, SlotNumber: slotNumber, ReplacedTeam: teamID}
			return nil
		}
		if !seat.IsBot {
			return fmt.Errorf("%w: slot league=%s number=%d is held by a human team", ErrConflict, leagueID, slotNumber)
		}
		if _, seated, err := s.slotRepo.GetMembership(ctx, teamID); err != nil {
			return fmt.Errorf("check claimant membership: %w", err)
		} else if seated {
			return fmt.Errorf("%w: team=%s already holds a seat", ErrConflict, teamID)
		}

		now := s.now().UTC()
		replaced := seat.TeamID
		if err := s.slotRepo.Upsert(ctx, slot.Slot{
			LeagueID: leagueID,
			Number:   slotNumber,
			TeamID:   teamID,
			IsBot:    false,
			LockedAt: now,
		}); err != nil {
			return fmt.Errorf("hand over slot: %w", err)
		}
		if err := s.slotRepo.CreateMembership(ctx, slot.Membership{
			TeamID:     teamID,
			LeagueID:   leagueID,
			SlotNumber: slotNumber,
			JoinedAt:   now,
		}); err != nil {
			return fmt.Errorf("create claimant membership: %w", err)
		}
		if err := s.transferStanding(ctx, leagueID, replaced, teamID, claimant.Name); err != nil {
			return err
		}

		result = ClaimSlotResult{LeagueID: leagueID, SlotNumber: slotNumber, ReplacedTeam: replaced}
		return nil
	})
	if err != nil {
		return ClaimSlotResult{}, err
	}

	if result.ReplacedTeam != teamID {
		rewritten, err := s.rewriteFixtureRefs(ctx, leagueID, result.ReplacedTeam, teamID)
		if err != nil {
			// Seat handover committed; the rewrite can be replayed by a
			// second claim call or the dedupe sweep.
			s.logger.ErrorContext(ctx, "fixture rewrite after claim failed",
				"league_id", leagueID, "from", result.ReplacedTeam, "to", teamID, "error", err)
		}
		result.RewrittenFix = rewritten
	}
	return result, nil
}

// transferStanding moves the replaced team's accumulated record to its
// successor so mid-season handovers keep the table consistent.
func (s *SlotService) transferStanding(ctx context.Context, leagueID, fromTeamID, toTeamID, toName string) error {
	row, found, err := s.standingRepo.Get(ctx, leagueID, fromTeamID)
	if err != nil {
		return fmt.Errorf("get standing for transfer: %w", err)
	}
	if !found {
		row = standing.Zero(leagueID, toTeamID, toName)
	} else {
		// The row is re-keyed by team id, so the old key must go or the
		// league ends up with one row more than it has seats.
		if err := s.standingRepo.Delete(ctx, leagueID, fromTeamID); err != nil {
			return fmt.Errorf("drop replaced standing: %w", err)
		}
		row.TeamID = toTeamID
		row.TeamName = toName
	}
	if err := s.standingRepo.Upsert(ctx, row); err != nil {
		return fmt.Errorf("write transferred standing: %w", err)
	}
	return nil
}

// rewriteFixtureRefs repoints every fixture touching fromTeamID. Runs in
// chunks outside any transaction.
func (s *SlotService) rewriteFixtureRefs(ctx context.Context, leagueID, fromTeamID, toTeamID string) (int, error) {
	items, err := s.fixtureRepo.ListByLeagueAndTeam(ctx, leagueID, fromTeamID)
	if err != nil {
		return 0, fmt.Errorf("list fixtures for rewrite: %w", err)
	}

	rewritten := 0
	for start := 0; start < len(items); start += fixtureRewriteChunk {
		end := start + fixtureRewriteChunk
		if end > len(items) {
			end = len(items)
		}
		for _, item := range items[start:end] {
			if err := s.fixtureRepo.UpdateTeamRef(ctx, item.ID, fromTeamID, toTeamID); err != nil {
				return rewritten, fmt.Errorf("rewrite fixture=%s: %w", item.ID, err)
			}
			rewritten++
		}
	}
	return rewritten, nil
}

type DedupeResult struct {
	TeamID          string `json:"team_id"`
	CanonicalLeague string `json:"canonical_league"`
	DemotedSeats    int    `json:"demoted_seats"`
}

// DedupeMemberships restores the one-seat-per-team invariant. The seat
// matching the membership record wins (latest lock time as tiebreak);
// every other seat is handed to a fresh filler.
func (s *SlotService) DedupeMemberships(ctx context.Context, teamID string) (DedupeResult, error) {
	ctx, span := startUsecaseSpan(ctx, "SlotService.DedupeMemberships")
	defer span.End()

	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return DedupeResult{}, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}

	seats, err := s.slotRepo.FindByTeam(ctx, teamID)
	if err != nil {
		return DedupeResult{}, fmt.Errorf("find seats team=%s: %w", teamID, err)
	}
	if len(seats) <= 1 {
		result := DedupeResult{TeamID: teamID}
		if len(seats) == 1 {
			result.CanonicalLeague = seats[0].LeagueID
		}
		return result, nil
	}

	membership, _, err := s.slotRepo.GetMembership(ctx, teamID)
	if err != nil {
		return DedupeResult{}, fmt.Errorf("get membership team=%s: %w", teamID, err)
	}
	canonical, demoted := slot.CanonicalPick(seats, membership.LeagueID)

	// Mint the replacement fillers before touching any seat; roster
	// synthesis must not run inside the transaction closure.
	fillers := make([]team.Team, 0, len(demoted))
	for range demoted {
		filler, err := s.bots.NewFiller(ctx)
		if err != nil {
			return DedupeResult{}, fmt.Errorf("mint replacement filler: %w", err)
		}
		fillers = append(fillers, filler)
	}

	err = s.runner.InTx(ctx, func(ctx context.Context) error {
		now := s.now().UTC()
		for i, seat := range demoted {
			filler := fillers[i]
			if err := s.slotRepo.Upsert(ctx, slot.Slot{
				LeagueID: seat.LeagueID,
				Number:   seat.Number,
				TeamID:   filler.ID,
				IsBot:    true,
				LockedAt: now,
			}); err != nil {
				return fmt.Errorf("demote seat league=%s number=%d: %w", seat.LeagueID, seat.Number, err)
			}
			if err := s.transferStanding(ctx, seat.LeagueID, teamID, filler.ID, filler.Name); err != nil {
				return err
			}
		}
		// Repoint the membership at the surviving seat.
		if err := s.slotRepo.DeleteMembership(ctx, teamID); err != nil {
			return fmt.Errorf("drop stale membership: %w", err)
		}
		if err := s.slotRepo.CreateMembership(ctx, slot.Membership{
			TeamID:     teamID,
			LeagueID:   canonical.LeagueID,
			SlotNumber: canonical.Number,
			JoinedAt:   now,
		}); err != nil {
			return fmt.Errorf("rewrite canonical membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return DedupeResult{}, err
	}

	for i, seat := range demoted {
		if _, err := s.rewriteFixtureRefs(ctx, seat.LeagueID, teamID, fillers[i].ID); err != nil {
			s.logger.ErrorContext(ctx, "fixture rewrite after demotion failed",
				"league_id", seat.LeagueID, "team_id", teamID, "filler_id", fillers[i].ID, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "membership dedupe applied",
		"team_id", teamID, "canonical_league", canonical.LeagueID, "demoted", len(demoted))
	return DedupeResult{
		TeamID:          teamID,
		CanonicalLeague: canonical.LeagueID,
		DemotedSeats:    len(demoted),
	}, nil
}
