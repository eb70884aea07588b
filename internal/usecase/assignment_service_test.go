package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ligatr/league-engine/internal/domain/league"
)

func TestAssignmentService_AssignCreatesLeagueAndSeat(t *testing.T) {
	t.Parallel()

	h := newHarness(4)
	h.addHumanTeam("team-1", "Kartal SK")

	got, err := h.assignment.Assign(context.Background(), "team-1")
	require.NoError(t, err)
	require.NotEmpty(t, got.LeagueID)
	require.Equal(t, league.StateForming, got.State)
	require.Equal(t, 1, got.SlotNumber)
	require.False(t, got.AlreadyAssigned)
	require.False(t, got.LeagueFilled)

	created, exists, err := h.leagueRepo.GetByID(context.Background(), got.LeagueID)
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, 1, created.MemberCount)
	require.Equal(t, 4, created.Capacity)

	// Zero standing row seeded at assignment time.
	row, found, err := h.standingRepo.Get(context.Background(), got.LeagueID, "team-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Kartal SK", row.TeamName)
	require.Zero(t, row.Played)
}

func TestAssignmentService_AssignIsIdempotentPerTeam(t *testing.T) {
	t.Parallel()

	h := newHarness(4)
	h.addHumanTeam("team-1", "Kartal SK")

	first, err := h.assignment.Assign(context.Background(), "team-1")
	require.NoError(t, err)
	second, err := h.assignment.Assign(context.Background(), "team-1")
	require.NoError(t, err)

	require.True(t, second.AlreadyAssigned)
	require.Equal(t, first.LeagueID, second.LeagueID)
	require.Equal(t, first.SlotNumber, second.SlotNumber)

	item, _, err := h.leagueRepo.GetByID(context.Background(), first.LeagueID)
	require.NoError(t, err)
	require.Equal(t, 1, item.MemberCount)
}

func TestAssignmentService_FillingLeagueSchedulesAndBuildsCalendar(t *testing.T) {
	t.Parallel()

	h := newHarness(4)
	ctx := context.Background()
	var leagueID string
	for i := 1; i <= 4; i++ {
		h.addHumanTeam(fmt.Sprintf("team-%d", i), fmt.Sprintf("Team %d", i))
		got, err := h.assignment.Assign(ctx, fmt.Sprintf("team-%d", i))
		require.NoError(t, err)
		leagueID = got.LeagueID

		if i < 4 {
			require.False(t, got.LeagueFilled)
			require.Equal(t, league.StateForming, got.State)
		} else {
			require.True(t, got.LeagueFilled)
			require.Equal(t, league.StateScheduled, got.State)
		}
	}

	filled, _, err := h.leagueRepo.GetByID(ctx, leagueID)
	require.NoError(t, err)
	require.Equal(t, league.StateScheduled, filled.State)
	require.Equal(t, 4, filled.MemberCount)
	require.NotNil(t, filled.KickoffAt)
	require.Equal(t, 3, filled.Rounds)

	// Calendar built post-commit: 4 teams, single round robin.
	fixtures, err := h.fixtureRepo.ListByLeague(ctx, leagueID)
	require.NoError(t, err)
	require.Len(t, fixtures, 6)
	for _, f := range fixtures {
		require.Equal(t, "scheduled", f.Status)
		require.False(t, f.KickoffAt.IsZero())
	}
}

func TestAssignmentService_FifthTeamOpensNextLeague(t *testing.T) {
	t.Parallel()

	h := newHarness(4)
	ctx := context.Background()
	var firstLeague string
	for i := 1; i <= 4; i++ {
		h.addHumanTeam(fmt.Sprintf("team-%d", i), fmt.Sprintf("Team %d", i))
		got, err := h.assignment.Assign(ctx, fmt.Sprintf("team-%d", i))
		require.NoError(t, err)
		firstLeague = got.LeagueID
	}

	h.addHumanTeam("team-5", "Team 5")
	got, err := h.assignment.Assign(ctx, "team-5")
	require.NoError(t, err)
	require.NotEqual(t, firstLeague, got.LeagueID)
	require.Equal(t, 1, got.SlotNumber)
	require.Equal(t, league.StateForming, got.State)
}

func TestAssignmentService_AssignUnknownTeam(t *testing.T) {
	t.Parallel()

	h := newHarness(4)
	_, err := h.assignment.Assign(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = h.assignment.Assign(context.Background(), "  ")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestAssignmentService_AssignAll(t *testing.T) {
	t.Parallel()

	h := newHarness(4)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		h.addHumanTeam(fmt.Sprintf("team-%d", i), fmt.Sprintf("Team %d", i))
	}
	// Bots never get auto-assigned.
	bot, err := h.bots.EnsureFiller(ctx, "bot-xyz")
	require.NoError(t, err)
	require.True(t, bot.IsBot)

	// One team already seated counts separately.
	_, err = h.assignment.Assign(ctx, "team-1")
	require.NoError(t, err)

	got, err := h.assignment.AssignAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, got.Processed)
	require.Equal(t, 2, got.Assigned)
	require.Equal(t, 1, got.AlreadyAssigned)
	require.Zero(t, got.Failed)
	require.Empty(t, got.Errors)
}
