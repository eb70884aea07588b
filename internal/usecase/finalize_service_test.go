package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ligatr/league-engine/internal/domain/fixture"
	"github.com/ligatr/league-engine/internal/domain/league"
)

func TestFinalizeService_SettleInstantIsDeterministicAndIdempotent(t *testing.T) {
	t.Parallel()

	h := newHarness(4)
	matches := seedDispatchDay(t, h)
	ctx := context.Background()
	matchID := matches[0].ID

	first, err := h.finalize.SettleInstant(ctx, matchID)
	require.NoError(t, err)
	require.False(t, first.AlreadyFinal)
	require.GreaterOrEqual(t, first.HomeScore, 0)
	require.LessOrEqual(t, first.HomeScore, 4)
	require.GreaterOrEqual(t, first.AwayScore, 0)
	require.LessOrEqual(t, first.AwayScore, 4)

	// Second settle acknowledges without rewriting.
	second, err := h.finalize.SettleInstant(ctx, matchID)
	require.NoError(t, err)
	require.True(t, second.AlreadyFinal)
	require.Equal(t, first.HomeScore, second.HomeScore)
	require.Equal(t, first.AwayScore, second.AwayScore)

	final, _, err := h.fixtureRepo.GetByID(ctx, matchID)
	require.NoError(t, err)
	require.Equal(t, fixture.StatusPlayed, final.Status)
	require.Equal(t, "results/S1/lg-1/"+matchID+".json", final.ReplayPath)

	// Standings moved exactly once for both sides.
	home, _, err := h.standingRepo.Get(ctx, "lg-1", final.HomeTeamID)
	require.NoError(t, err)
	require.Equal(t, 1, home.Played)
	away, _, err := h.standingRepo.Get(ctx, "lg-1", final.AwayTeamID)
	require.NoError(t, err)
	require.Equal(t, 1, away.Played)
	require.Equal(t, home.GoalsFor, away.GoalsAgainst)

	switch {
	case first.HomeScore > first.AwayScore:
		require.Equal(t, 3, home.Points)
		require.Zero(t, away.Points)
	case first.HomeScore < first.AwayScore:
		require.Zero(t, home.Points)
		require.Equal(t, 3, away.Points)
	default:
		require.Equal(t, 1, home.Points)
		require.Equal(t, 1, away.Points)
	}

	// The fabricated artifact was persisted for audit.
	_, err = h.store.Get(ctx, final.ReplayPath)
	require.NoError(t, err)
}

func TestFinalizeService_FinalizeFromArtifact(t *testing.T) {
	t.Parallel()

	h := newHarness(4)
	matches := seedDispatchDay(t, h)
	ctx := context.Background()
	matchID := matches[0].ID
	path := "results/S1/lg-1/" + matchID + ".json"

	require.NoError(t, h.store.Put(ctx, path, []byte(`{"version":1,"matchId":"`+matchID+`","leagueId":"lg-1","score":{"home":3,"away":1}}`), "application/json"))

	got, err := h.finalize.FinalizeFromArtifact(ctx, "/"+path)
	require.NoError(t, err)
	require.Equal(t, 3, got.HomeScore)
	require.Equal(t, 1, got.AwayScore)
	require.False(t, got.AlreadyFinal)

	final, _, err := h.fixtureRepo.GetByID(ctx, matchID)
	require.NoError(t, err)
	require.Equal(t, fixture.StatusPlayed, final.Status)
	require.Equal(t, path, final.ReplayPath)
}

func TestFinalizeService_FinalizeFromArtifactShortScoreKeys(t *testing.T) {
	t.Parallel()

	h := newHarness(4)
	matches := seedDispatchDay(t, h)
	ctx := context.Background()
	matchID := matches[1].ID
	path := "results/S1/lg-1/" + matchID + ".json"

	require.NoError(t, h.store.Put(ctx, path, []byte(`{"score":{"h":0,"a":2}}`), "application/json"))

	got, err := h.finalize.FinalizeFromArtifact(ctx, path)
	require.NoError(t, err)
	require.Equal(t, 0, got.HomeScore)
	require.Equal(t, 2, got.AwayScore)
}

func TestFinalizeService_FinalizeFromArtifactRejections(t *testing.T) {
	t.Parallel()

	h := newHarness(4)
	matches := seedDispatchDay(t, h)
	ctx := context.Background()
	matchID := matches[0].ID

	_, err := h.finalize.FinalizeFromArtifact(ctx, "not/a/result/path")
	require.ErrorIs(t, err, ErrInvalidInput)

	// Body naming a different match than the path.
	path := "results/S1/lg-1/" + matchID + ".json"
	require.NoError(t, h.store.Put(ctx, path, []byte(`{"matchId":"other","score":{"home":1,"away":0}}`), "application/json"))
	_, err = h.finalize.FinalizeFromArtifact(ctx, path)
	require.ErrorIs(t, err, ErrInvalidInput)

	// Score with neither key pair.
	require.NoError(t, h.store.Put(ctx, path, []byte(`{"matchId":"`+matchID+`","score":{"home":1}}`), "application/json"))
	_, err = h.finalize.FinalizeFromArtifact(ctx, path)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestFinalizeService_LastResultCompletesLeague(t *testing.T) {
	t.Parallel()

	h := newHarness(4)
	matches := seedDispatchDay(t, h)
	ctx := context.Background()
	require.NoError(t, h.leagueRepo.UpdateState(ctx, "lg-1", league.StateActive))

	first, err := h.finalize.SettleInstant(ctx, matches[0].ID)
	require.NoError(t, err)
	require.False(t, first.LeagueCompleted)

	last, err := h.finalize.SettleInstant(ctx, matches[1].ID)
	require.NoError(t, err)
	require.True(t, last.LeagueCompleted)

	lg, _, err := h.leagueRepo.GetByID(ctx, "lg-1")
	require.NoError(t, err)
	require.Equal(t, league.StateCompleted, lg.State)
}

func TestFinalizeService_BackfillDryRunAndSettle(t *testing.T) {
	t.Parallel()

	h := newHarness(4)
	matches := seedDispatchDay(t, h)
	ctx := context.Background()

	// One match got stuck running, the other never dispatched.
	startedAt := testKickoff.Add(5 * time.Minute)
	require.NoError(t, h.fixtureRepo.MarkRunning(ctx, matches[0].ID, startedAt))

	cutoff := testKickoff.Add(24 * time.Hour)
	preview, err := h.finalize.Backfill(ctx, BackfillRequest{Cutoff: cutoff, DryRun: true})
	require.NoError(t, err)
	require.True(t, preview.DryRun)
	require.ElementsMatch(t, []string{matches[0].ID, matches[1].ID}, preview.Candidates)
	require.Zero(t, preview.Settled)

	// Dry run must not have touched anything.
	still, _, err := h.fixtureRepo.GetByID(ctx, matches[1].ID)
	require.NoError(t, err)
	require.Equal(t, fixture.StatusScheduled, still.Status)

	applied, err := h.finalize.Backfill(ctx, BackfillRequest{Cutoff: cutoff})
	require.NoError(t, err)
	require.Equal(t, 2, applied.Settled)
	require.Zero(t, applied.Failed)

	for _, m := range matches {
		final, _, err := h.fixtureRepo.GetByID(ctx, m.ID)
		require.NoError(t, err)
		require.Equal(t, fixture.StatusPlayed, final.Status)
	}
}
