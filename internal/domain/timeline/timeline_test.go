package timeline_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ligatr/league-engine/internal/domain/timeline"
)

func TestRandomScore_DeterministicAndBounded(t *testing.T) {
	t.Parallel()

	h1, a1 := timeline.RandomScore("match-abc-3")
	h2, a2 := timeline.RandomScore("match-abc-3")
	require.Equal(t, h1, h2)
	require.Equal(t, a1, a2)

	for _, key := range []string{"match-a-1", "match-b-2", "match-c-3", "match-d-4"} {
		home, away := timeline.RandomScore(key)
		require.GreaterOrEqual(t, home, 0)
		require.LessOrEqual(t, home, 4)
		require.GreaterOrEqual(t, away, 0)
		require.LessOrEqual(t, away, 4)
	}
}

func TestRandomScore_KeysDiverge(t *testing.T) {
	t.Parallel()

	distinct := map[[2]int]bool{}
	for _, key := range []string{"m1", "m2", "m3", "m4", "m5", "m6", "m7", "m8"} {
		home, away := timeline.RandomScore(key)
		distinct[[2]int{home, away}] = true
	}
	require.Greater(t, len(distinct), 1)
}

func TestGenerate_EventShape(t *testing.T) {
	t.Parallel()

	events := timeline.Generate("match-xyz-7", 3, 2)
	require.Len(t, events, 5)

	seenMinutes := map[int]bool{}
	home, away := 0, 0
	lastMinute := 0
	for _, ev := range events {
		require.GreaterOrEqual(t, ev.Minute, 1)
		require.LessOrEqual(t, ev.Minute, 90)
		require.GreaterOrEqual(t, ev.Minute, lastMinute)
		require.False(t, seenMinutes[ev.Minute], "minute %d repeated", ev.Minute)
		seenMinutes[ev.Minute] = true
		lastMinute = ev.Minute

		switch ev.Side {
		case timeline.SideHome:
			home++
		case timeline.SideAway:
			away++
		default:
			t.Fatalf("unexpected side %q", ev.Side)
		}
		require.Equal(t, home, ev.HomeScore)
		require.Equal(t, away, ev.AwayScore)
	}
	require.Equal(t, 3, home)
	require.Equal(t, 2, away)
}

func TestGenerate_Deterministic(t *testing.T) {
	t.Parallel()

	first := timeline.Generate("match-det-1", 2, 2)
	second := timeline.Generate("match-det-1", 2, 2)
	require.Equal(t, first, second)
}

func TestGenerate_GoallessMatch(t *testing.T) {
	t.Parallel()

	require.Empty(t, timeline.Generate("match-nil-0", 0, 0))
}
