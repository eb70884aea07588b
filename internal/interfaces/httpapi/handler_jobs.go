package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ligatr/league-engine/internal/domain/schedule"
	"github.com/ligatr/league-engine/internal/usecase"
)

func (h *Handler) RunAssignAllJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunAssignAllJob")
	defer span.End()

	result, err := h.assignmentService.AssignAll(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "assign-all job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

type buildCalendarJobRequest struct {
	LeagueID string `json:"leagueId" validate:"required"`
	Mode     string `json:"mode" validate:"omitempty,oneof=single double"`
	Force    bool   `json:"force"`
}

func (h *Handler) RunBuildCalendarJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunBuildCalendarJob")
	defer span.End()

	var req buildCalendarJobRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.calendarService.BuildCalendar(ctx, usecase.BuildCalendarInput{
		LeagueID: req.LeagueID,
		Mode:     schedule.Mode(req.Mode),
		Force:    req.Force,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "build-calendar job failed", "league_id", req.LeagueID, "force", req.Force, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

type runDayJobRequest struct {
	DayKey        string `json:"dayKey" validate:"omitempty,datetime=2006-01-02"`
	InstantSettle bool   `json:"instantSettle"`
	Force         bool   `json:"force"`
}

func (h *Handler) RunDayJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunDayJob")
	defer span.End()

	var req runDayJobRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.dispatchService.RunDaily(ctx, usecase.DayRequest{
		DayKey:        req.DayKey,
		InstantSettle: req.InstantSettle,
		Force:         req.Force,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "run-day job failed", "day_key", req.DayKey, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

type startMatchJobRequest struct {
	MatchID  string `json:"matchId" validate:"required"`
	LeagueID string `json:"leagueId" validate:"required"`
}

func (h *Handler) RunStartMatchJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunStartMatchJob")
	defer span.End()

	var req startMatchJobRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.dispatchService.StartMatch(ctx, req.MatchID, req.LeagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "start-match job failed", "match_id", req.MatchID, "league_id", req.LeagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

// finalizeJobRequest accepts both the direct `{path}` shape and the
// bucket notification shape the object store emits on artifact writes.
type finalizeJobRequest struct {
	Path    string                 `json:"path"`
	Records []storageObjectCreated `json:"Records"`
}

type storageObjectCreated struct {
	S3 struct {
		Object struct {
			Key string `json:"key"`
		} `json:"object"`
	} `json:"s3"`
}

func (req finalizeJobRequest) artifactPath() string {
	if path := strings.TrimSpace(req.Path); path != "" {
		return path
	}
	for _, record := range req.Records {
		if key := strings.TrimSpace(record.S3.Object.Key); key != "" {
			return key
		}
	}
	return ""
}

func (h *Handler) RunFinalizeJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunFinalizeJob")
	defer span.End()

	var req finalizeJobRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	path := req.artifactPath()
	if path == "" {
		writeError(ctx, w, fmt.Errorf("%w: artifact path is required", usecase.ErrInvalidInput))
		return
	}

	result, err := h.finalizeService.FinalizeFromArtifact(ctx, path)
	if err != nil {
		h.logger.WarnContext(ctx, "finalize job failed", "path", path, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

type backfillJobRequest struct {
	Cutoff     string `json:"cutoff"`
	MaxMatches int    `json:"maxMatches" validate:"omitempty,min=1"`
	DryRun     bool   `json:"dryRun"`
}

func (h *Handler) RunBackfillJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunBackfillJob")
	defer span.End()

	var req backfillJobRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	cutoff, err := parseBackfillCutoff(req.Cutoff)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.finalizeService.Backfill(ctx, usecase.BackfillRequest{
		Cutoff:     cutoff,
		MaxMatches: req.MaxMatches,
		DryRun:     req.DryRun,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "backfill job failed", "cutoff", req.Cutoff, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

// parseBackfillCutoff accepts an RFC3339 timestamp or a bare date. A
// bare date covers the whole day, so it parses to the next midnight.
func parseBackfillCutoff(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts.UTC(), nil
	}
	if day, err := time.Parse("2006-01-02", raw); err == nil {
		return day.AddDate(0, 0, 1).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: cutoff must be RFC3339 or YYYY-MM-DD, got %q", usecase.ErrInvalidInput, raw)
}

func (h *Handler) RunWatchdogJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunWatchdogJob")
	defer span.End()

	report, err := h.watchdogService.Sweep(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "watchdog job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, report)
}

type dedupeMembershipsJobRequest struct {
	TeamID string `json:"teamId" validate:"required"`
}

func (h *Handler) RunDedupeMembershipsJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunDedupeMembershipsJob")
	defer span.End()

	var req dedupeMembershipsJobRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.slotService.DedupeMemberships(ctx, req.TeamID)
	if err != nil {
		h.logger.WarnContext(ctx, "dedupe-memberships job failed", "team_id", req.TeamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}
