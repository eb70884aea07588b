package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/ligatr/league-engine/internal/domain/team"
	"github.com/ligatr/league-engine/internal/platform/id"
	"github.com/ligatr/league-engine/internal/platform/logging"
)

// BotService owns filler team synthesis. Fillers keep every league at
// full capacity so the calendar never has holes.
type BotService struct {
	teamRepo team.Repository
	idGen    id.Generator
	rating   int
	logger   *logging.Logger
}

func NewBotService(teamRepo team.Repository, idGen id.Generator, rating int, logger *logging.Logger) *BotService {
	if rating <= 0 {
		rating = team.DefaultBotRating
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &BotService{
		teamRepo: teamRepo,
		idGen:    idGen,
		rating:   rating,
		logger:   logger,
	}
}

// EnsureFiller materializes the bot team for the given id. The roster is
// a pure function of the id, so concurrent callers converge on the same
// record and the create-if-absent write keeps the first one.
func (s *BotService) EnsureFiller(ctx context.Context, botID string) (team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "BotService.EnsureFiller")
	defer span.End()

	botID = strings.TrimSpace(botID)
	if botID == "" {
		return team.Team{}, fmt.Errorf("%w: bot id is required", ErrInvalidInput)
	}

	synthesized := team.SynthesizeBot(botID, s.rating)
	created, err := s.teamRepo.CreateIfAbsent(ctx, synthesized)
	if err != nil {
		return team.Team{}, fmt.Errorf("persist filler team bot=%s: %w", botID, err)
	}
	if created {
		s.logger.InfoContext(ctx, "filler team created", "bot_id", botID, "rating", s.rating)
		return synthesized, nil
	}

	existing, ok, err := s.teamRepo.GetByID(ctx, botID)
	if err != nil {
		return team.Team{}, fmt.Errorf("load existing filler team bot=%s: %w", botID, err)
	}
	if !ok {
		// Lost a race with a delete; the synthesized copy is still valid.
		return synthesized, nil
	}
	return existing, nil
}

// NewFiller mints a fresh filler with a random identity, used when a
// duplicate seat has to be backfilled by a team nobody owns yet.
func (s *BotService) NewFiller(ctx context.Context) (team.Team, error) {
	raw, err := s.idGen.NewID()
	if err != nil {
		return team.Team{}, fmt.Errorf("generate filler id: %w", err)
	}
	if len(raw) > 12 {
		raw = raw[:12]
	}
	return s.EnsureFiller(ctx, "bot-"+raw)
}
