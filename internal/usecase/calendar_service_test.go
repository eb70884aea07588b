package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ligatr/league-engine/internal/domain/league"
	"github.com/ligatr/league-engine/internal/domain/schedule"
	"github.com/ligatr/league-engine/internal/domain/slot"
)

func seedScheduledLeague(t *testing.T, h *harness, leagueID string, teamCount int) {
	t.Helper()
	ctx := context.Background()

	kickoff := time.Now().UTC().Add(24 * time.Hour)
	h.addLeague(league.League{
		ID:        leagueID,
		Name:      "Test League",
		Season:    1,
		Capacity:  teamCount,
		Timezone:  "Europe/Istanbul",
		State:     league.StateScheduled,
		KickoffAt: &kickoff,
		CreatedAt: time.Now().UTC(),
	})
	for i := 1; i <= teamCount; i++ {
		teamID := fmt.Sprintf("team-%d", i)
		h.addHumanTeam(teamID, fmt.Sprintf("Team %d", i))
		require.NoError(t, h.slotRepo.Upsert(ctx, slot.Slot{
			LeagueID: leagueID,
			Number:   i,
			TeamID:   teamID,
			LockedAt: time.Now().UTC(),
		}))
	}
}

func TestCalendarService_BuildSingleRoundRobin(t *testing.T) {
	t.Parallel()

	h := newHarness(4)
	seedScheduledLeague(t, h, "lg-1", 4)

	got, err := h.calendar.BuildCalendar(context.Background(), BuildCalendarInput{LeagueID: "lg-1"})
	require.NoError(t, err)
	require.False(t, got.Skipped)
	require.Equal(t, 3, got.Rounds)
	require.Equal(t, 6, got.FixtureCount)

	fixtures, err := h.fixtureRepo.ListByLeague(context.Background(), "lg-1")
	require.NoError(t, err)
	require.Len(t, fixtures, 6)

	// Rounds a day apart, starting at the league kickoff.
	byRound := map[int]time.Time{}
	for _, f := range fixtures {
		require.Equal(t, 1, f.Season)
		byRound[f.Round] = f.KickoffAt
	}
	require.Len(t, byRound, 3)
	require.Equal(t, byRound[1].Add(24*time.Hour), byRound[2])
	require.Equal(t, byRound[2].Add(24*time.Hour), byRound[3])
}

func TestCalendarService_BuildDoubleRoundRobin(t *testing.T) {
	t.Parallel()

	h := newHarness(4)
	seedScheduledLeague(t, h, "lg-1", 4)

	got, err := h.calendar.BuildCalendar(context.Background(), BuildCalendarInput{
		LeagueID: "lg-1",
		Mode:     schedule.DoubleRoundRobin,
	})
	require.NoError(t, err)
	require.Equal(t, 6, got.Rounds)
	require.Equal(t, 12, got.FixtureCount)
}

func TestCalendarService_SecondBuildSkips(t *testing.T) {
	t.Parallel()

	h := newHarness(4)
	seedScheduledLeague(t, h, "lg-1", 4)
	ctx := context.Background()

	_, err := h.calendar.BuildCalendar(ctx, BuildCalendarInput{LeagueID: "lg-1"})
	require.NoError(t, err)

	second, err := h.calendar.BuildCalendar(ctx, BuildCalendarInput{LeagueID: "lg-1"})
	require.NoError(t, err)
	require.True(t, second.Skipped)

	fixtures, err := h.fixtureRepo.ListByLeague(ctx, "lg-1")
	require.NoError(t, err)
	require.Len(t, fixtures, 6)
}

func TestCalendarService_ForceRebuildResetsDerivedState(t *testing.T) {
	t.Parallel()

	h := newHarness(4)
	seedScheduledLeague(t, h, "lg-1", 4)
	ctx := context.Background()

	_, err := h.calendar.BuildCalendar(ctx, BuildCalendarInput{LeagueID: "lg-1"})
	require.NoError(t, err)

	// Play a match so there is derived state to wipe.
	fixtures, err := h.fixtureRepo.ListByLeague(ctx, "lg-1")
	require.NoError(t, err)
	_, err = h.finalize.SettleInstant(ctx, fixtures[0].ID)
	require.NoError(t, err)

	rebuilt, err := h.calendar.BuildCalendar(ctx, BuildCalendarInput{LeagueID: "lg-1", Force: true})
	require.NoError(t, err)
	require.False(t, rebuilt.Skipped)
	require.Equal(t, 6, rebuilt.FixtureCount)

	fixtures, err = h.fixtureRepo.ListByLeague(ctx, "lg-1")
	require.NoError(t, err)
	for _, f := range fixtures {
		require.Equal(t, "scheduled", f.Status)
	}
	rows, err := h.standingRepo.ListByLeague(ctx, "lg-1")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	for _, row := range rows {
		require.Zero(t, row.Played)
		require.Zero(t, row.Points)
	}
}

func TestCalendarService_RejectsFormingLeague(t *testing.T) {
	t.Parallel()

	h := newHarness(4)
	h.addLeague(league.League{
		ID: "lg-forming", Name: "Forming", Season: 1, Capacity: 4,
		Timezone: "Europe/Istanbul", State: league.StateForming,
	})

	_, err := h.calendar.BuildCalendar(context.Background(), BuildCalendarInput{LeagueID: "lg-forming"})
	require.ErrorIs(t, err, ErrConflict)
}

func TestCalendarService_UnknownLeagueAndBadMode(t *testing.T) {
	t.Parallel()

	h := newHarness(4)
	_, err := h.calendar.BuildCalendar(context.Background(), BuildCalendarInput{LeagueID: "ghost"})
	require.ErrorIs(t, err, ErrNotFound)

	seedScheduledLeague(t, h, "lg-1", 4)
	_, err = h.calendar.BuildCalendar(context.Background(), BuildCalendarInput{LeagueID: "lg-1", Mode: "triple"})
	require.ErrorIs(t, err, ErrInvalidInput)
}
