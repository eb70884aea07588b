package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBotService_EnsureFillerIsDeterministic(t *testing.T) {
	t.Parallel()

	h := newHarness(4)
	ctx := context.Background()

	first, err := h.bots.EnsureFiller(ctx, "bot-abc123")
	require.NoError(t, err)
	require.True(t, first.IsBot)
	require.Equal(t, "4-4-2", first.Formation)
	require.Len(t, first.Players, 22)

	// Second call reads the persisted copy; same roster either way.
	second, err := h.bots.EnsureFiller(ctx, "bot-abc123")
	require.NoError(t, err)
	require.Equal(t, first, second)

	starters, bench := first.Lineup()
	require.Len(t, starters, 11)
	require.Len(t, bench, 7)
	for _, p := range starters {
		require.NotEmpty(t, p.Position)
		require.GreaterOrEqual(t, p.Rating, 1)
		require.LessOrEqual(t, p.Rating, 99)
	}
}

func TestBotService_EnsureFillerValidation(t *testing.T) {
	t.Parallel()

	h := newHarness(4)
	_, err := h.bots.EnsureFiller(context.Background(), "  ")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestBotService_NewFillerMintsDistinctBots(t *testing.T) {
	t.Parallel()

	h := newHarness(4)
	ctx := context.Background()

	first, err := h.bots.NewFiller(ctx)
	require.NoError(t, err)
	second, err := h.bots.NewFiller(ctx)
	require.NoError(t, err)

	require.NotEqual(t, first.ID, second.ID)
	require.True(t, first.IsBot)
	require.True(t, second.IsBot)
}
