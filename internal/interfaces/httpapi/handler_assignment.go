package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ligatr/league-engine/internal/domain/team"
	"github.com/ligatr/league-engine/internal/usecase"
)

type createAssignmentRequest struct {
	TeamID string `json:"teamId" validate:"required"`
}

func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateAssignment")
	defer span.End()

	var req createAssignmentRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if _, err := h.authorizeTeamAccess(ctx, req.TeamID); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.assignmentService.Assign(ctx, req.TeamID)
	if err != nil {
		h.logger.WarnContext(ctx, "assignment failed", "team_id", req.TeamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	status := http.StatusCreated
	if result.AlreadyAssigned {
		status = http.StatusOK
	}
	writeSuccess(ctx, w, status, result)
}

type claimSlotRequest struct {
	TeamID string `json:"teamId" validate:"required"`
}

func (h *Handler) ClaimSlot(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ClaimSlot")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	slotNumber, err := strconv.Atoi(r.PathValue("slotNumber"))
	if err != nil || slotNumber < 1 {
		writeError(ctx, w, fmt.Errorf("%w: slot number must be a positive integer", usecase.ErrInvalidInput))
		return
	}

	var req claimSlotRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if _, err := h.authorizeTeamAccess(ctx, req.TeamID); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.slotService.ClaimSlot(ctx, leagueID, slotNumber, req.TeamID)
	if err != nil {
		h.logger.WarnContext(ctx, "claim slot failed",
			"league_id", leagueID,
			"slot_number", slotNumber,
			"team_id", req.TeamID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

// authorizeTeamAccess resolves the target team and checks that the
// caller either owns it or carries the operator role.
func (h *Handler) authorizeTeamAccess(ctx context.Context, teamID string) (team.Team, error) {
	principal, ok := principalFromContext(ctx)
	if !ok {
		return team.Team{}, fmt.Errorf("%w: no authenticated principal", usecase.ErrUnauthorized)
	}

	item, exists, err := h.teams.GetByID(ctx, teamID)
	if err != nil {
		return team.Team{}, fmt.Errorf("look up team %s: %w", teamID, err)
	}
	if !exists {
		return team.Team{}, fmt.Errorf("%w: team=%s", usecase.ErrNotFound, teamID)
	}

	if principal.IsOperator() {
		return item, nil
	}
	if item.IsBot || item.OwnerID != principal.UserID {
		return team.Team{}, fmt.Errorf("%w: team %s belongs to another manager", usecase.ErrUnauthorized, teamID)
	}
	return item, nil
}
