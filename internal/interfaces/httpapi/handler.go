package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/ligatr/league-engine/internal/domain/team"
	"github.com/ligatr/league-engine/internal/platform/logging"
	"github.com/ligatr/league-engine/internal/usecase"
)

// TeamDirectory is the ownership lookup the authorization checks need.
type TeamDirectory interface {
	GetByID(ctx context.Context, teamID string) (team.Team, bool, error)
}

type Handler struct {
	leagueService     *usecase.LeagueService
	assignmentService *usecase.AssignmentService
	slotService       *usecase.SlotService
	calendarService   *usecase.CalendarService
	dispatchService   *usecase.DispatchService
	finalizeService   *usecase.FinalizeService
	watchdogService   *usecase.WatchdogService
	teams             TeamDirectory
	logger            *logging.Logger
	validator         *validator.Validate
}

func NewHandler(
	leagueService *usecase.LeagueService,
	assignmentService *usecase.AssignmentService,
	slotService *usecase.SlotService,
	calendarService *usecase.CalendarService,
	dispatchService *usecase.DispatchService,
	finalizeService *usecase.FinalizeService,
	watchdogService *usecase.WatchdogService,
	teams TeamDirectory,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		leagueService:     leagueService,
		assignmentService: assignmentService,
		slotService:       slotService,
		calendarService:   calendarService,
		dispatchService:   dispatchService,
		finalizeService:   finalizeService,
		watchdogService:   watchdogService,
		teams:             teams,
		logger:            logger,
		validator:         validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// decodeRequest parses a JSON body into out. An empty body is accepted
// and leaves out zeroed; validation decides what is actually required.
func decodeRequest(r *http.Request, out any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}
