package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ligatr/league-engine/internal/domain/fixture"
	"github.com/ligatr/league-engine/internal/domain/oplock"
)

// 22:00 Europe/Istanbul on the test day: past dispatch hour plus grace.
var watchdogNow = time.Date(2026, 9, 10, 19, 0, 0, 0, time.UTC)

func TestWatchdogService_HealthyDay(t *testing.T) {
	t.Parallel()

	h := newHarness(4)
	h.watchdog.now = func() time.Time { return watchdogNow }
	ctx := context.Background()

	require.NoError(t, h.oplockRepo.UpsertHeartbeat(ctx, oplock.Heartbeat{
		DayKey: testDayKey, DispatchedCount: 2, UpdatedAt: watchdogNow,
	}))

	report, err := h.watchdog.Sweep(ctx)
	require.NoError(t, err)
	require.True(t, report.Healthy)
	require.Empty(t, report.Findings)
	require.Equal(t, testDayKey, report.DayKey)
	require.Zero(t, h.alerter.count())
}

func TestWatchdogService_MissingHeartbeat(t *testing.T) {
	t.Parallel()

	h := newHarness(4)
	h.watchdog.now = func() time.Time { return watchdogNow }

	report, err := h.watchdog.Sweep(context.Background())
	require.NoError(t, err)
	require.False(t, report.Healthy)
	require.Len(t, report.Findings, 1)
	require.Equal(t, FindingHeartbeatMissing, report.Findings[0].Kind)
	require.Equal(t, 1, h.alerter.count())
}

func TestWatchdogService_BeforeGraceNoHeartbeatFinding(t *testing.T) {
	t.Parallel()

	h := newHarness(4)
	// 18:00 local, before the dispatch hour.
	h.watchdog.now = func() time.Time { return time.Date(2026, 9, 10, 15, 0, 0, 0, time.UTC) }

	report, err := h.watchdog.Sweep(context.Background())
	require.NoError(t, err)
	require.True(t, report.Healthy)
}

func TestWatchdogService_FlagsOverdueAndStuckMatches(t *testing.T) {
	t.Parallel()

	h := newHarness(4)
	h.watchdog.now = func() time.Time { return watchdogNow }
	ctx := context.Background()
	seedScheduledLeague(t, h, "lg-1", 4)

	require.NoError(t, h.oplockRepo.UpsertHeartbeat(ctx, oplock.Heartbeat{
		DayKey: testDayKey, UpdatedAt: watchdogNow,
	}))

	// Scheduled match whose kickoff passed more than two hours ago.
	h.addFixture(fixture.Fixture{
		ID: "m-overdue", LeagueID: "lg-1", Season: 1, Round: 1,
		HomeTeamID: "team-1", AwayTeamID: "team-2",
		KickoffAt: watchdogNow.Add(-3 * time.Hour),
	})
	// Running match started an hour ago with no result.
	stuck := h.addFixture(fixture.Fixture{
		ID: "m-stuck", LeagueID: "lg-1", Season: 1, Round: 1,
		HomeTeamID: "team-3", AwayTeamID: "team-4",
		KickoffAt: watchdogNow.Add(-2 * time.Hour),
	})
	require.NoError(t, h.fixtureRepo.MarkRunning(ctx, stuck.ID, watchdogNow.Add(-time.Hour)))

	report, err := h.watchdog.Sweep(ctx)
	require.NoError(t, err)
	require.False(t, report.Healthy)
	require.Len(t, report.Findings, 2)

	kinds := map[string]string{}
	for _, f := range report.Findings {
		kinds[f.Kind] = f.MatchID
	}
	require.Equal(t, "m-overdue", kinds[FindingScheduledOverdue])
	require.Equal(t, "m-stuck", kinds[FindingRunningStuck])
	require.Equal(t, 1, h.alerter.count())
}

func TestWatchdogService_SweepNeverMutates(t *testing.T) {
	t.Parallel()

	h := newHarness(4)
	h.watchdog.now = func() time.Time { return watchdogNow }
	ctx := context.Background()
	seedScheduledLeague(t, h, "lg-1", 4)

	overdue := h.addFixture(fixture.Fixture{
		ID: "m-overdue", LeagueID: "lg-1", Season: 1, Round: 1,
		HomeTeamID: "team-1", AwayTeamID: "team-2",
		KickoffAt: watchdogNow.Add(-3 * time.Hour),
	})

	_, err := h.watchdog.Sweep(ctx)
	require.NoError(t, err)

	after, _, err := h.fixtureRepo.GetByID(ctx, overdue.ID)
	require.NoError(t, err)
	require.Equal(t, fixture.StatusScheduled, after.Status)
	require.Nil(t, after.HomeScore)
}
