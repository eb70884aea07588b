package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ligatr/league-engine/internal/domain/fixture"
	"github.com/ligatr/league-engine/internal/domain/oplock"
	"github.com/ligatr/league-engine/internal/platform/logging"
)

// Alerter ships a watchdog finding somewhere a human will see it.
type Alerter interface {
	Alert(ctx context.Context, summary string, fields map[string]any) error
}

type WatchdogConfig struct {
	Timezone string
	// KickoffHour is the daily dispatch hour; the heartbeat is expected
	// HeartbeatGrace after it.
	KickoffHour    int
	HeartbeatGrace time.Duration
	// ScheduledOverdueAfter flags scheduled matches whose kickoff passed
	// this long ago without being dispatched.
	ScheduledOverdueAfter time.Duration
	// RunningStuckAfter flags running matches that never finalized.
	RunningStuckAfter time.Duration
	MaxSamples        int
}

func normalizeWatchdogConfig(cfg WatchdogConfig) WatchdogConfig {
	if strings.TrimSpace(cfg.Timezone) == "" {
		cfg.Timezone = "Europe/Istanbul"
	}
	if cfg.KickoffHour <= 0 || cfg.KickoffHour > 23 {
		cfg.KickoffHour = 19
	}
	if cfg.HeartbeatGrace <= 0 {
		cfg.HeartbeatGrace = time.Hour
	}
	if cfg.ScheduledOverdueAfter <= 0 {
		cfg.ScheduledOverdueAfter = 2 * time.Hour
	}
	if cfg.RunningStuckAfter <= 0 {
		cfg.RunningStuckAfter = 30 * time.Minute
	}
	if cfg.MaxSamples <= 0 {
		cfg.MaxSamples = 50
	}
	return cfg
}

const (
	FindingHeartbeatMissing = "heartbeat-missing"
	FindingScheduledOverdue = "scheduled-overdue"
	FindingRunningStuck     = "running-stuck"
)

type Finding struct {
	Kind     string `json:"kind"`
	MatchID  string `json:"match_id,omitempty"`
	LeagueID string `json:"league_id,omitempty"`
	Detail   string `json:"detail"`
}

type WatchdogReport struct {
	DayKey    string    `json:"day_key"`
	CheckedAt time.Time `json:"checked_at"`
	Healthy   bool      `json:"healthy"`
	Findings  []Finding `json:"findings,omitempty"`
}

// WatchdogService is the read-only reconciler: it observes what the
// pipeline left behind and alerts, but never mutates league state. Any
// repair goes through the backfill endpoint, on purpose.
type WatchdogService struct {
	fixtureRepo fixture.Repository
	oplockRepo  oplock.Repository
	alerter     Alerter
	cfg         WatchdogConfig
	logger      *logging.Logger
	now         func() time.Time
}

func NewWatchdogService(
	fixtureRepo fixture.Repository,
	oplockRepo oplock.Repository,
	alerter Alerter,
	cfg WatchdogConfig,
	logger *logging.Logger,
) *WatchdogService {
	if logger == nil {
		logger = logging.Default()
	}
	return &WatchdogService{
		fixtureRepo: fixtureRepo,
		oplockRepo:  oplockRepo,
		alerter:     alerter,
		cfg:         normalizeWatchdogConfig(cfg),
		logger:      logger,
		now:         time.Now,
	}
}

func (s *WatchdogService) Sweep(ctx context.Context) (WatchdogReport, error) {
	ctx, span := startUsecaseSpan(ctx, "WatchdogService.Sweep")
	defer span.End()

	loc, err := time.LoadLocation(s.cfg.Timezone)
	if err != nil {
		return WatchdogReport{}, fmt.Errorf("load watchdog timezone %q: %w", s.cfg.Timezone, err)
	}

	now := s.now()
	local := now.In(loc)
	dayKey := local.Format(dayKeyLayout)
	report := WatchdogReport{DayKey: dayKey, CheckedAt: now.UTC()}

	if finding, flagged := s.checkHeartbeat(ctx, dayKey, local, loc); flagged {
		report.Findings = append(report.Findings, finding)
	}

	overdue, err := s.fixtureRepo.ListScheduledBefore(ctx, now.UTC().Add(-s.cfg.ScheduledOverdueAfter), s.cfg.MaxSamples)
	if err != nil {
		return WatchdogReport{}, fmt.Errorf("list overdue scheduled matches: %w", err)
	}
	for _, item := range overdue {
		report.Findings = append(report.Findings, Finding{
			Kind:     FindingScheduledOverdue,
			MatchID:  item.ID,
			LeagueID: item.LeagueID,
			Detail:   fmt.Sprintf("kickoff %s never dispatched", item.KickoffAt.UTC().Format(time.RFC3339)),
		})
	}

	stuck, err := s.fixtureRepo.ListRunningStartedBefore(ctx, now.UTC().Add(-s.cfg.RunningStuckAfter))
	if err != nil {
		return WatchdogReport{}, fmt.Errorf("list stuck running matches: %w", err)
	}
	for i, item := range stuck {
		if i >= s.cfg.MaxSamples {
			break
		}
		detail := "running without a final result"
		if item.StartedAt != nil {
			detail = fmt.Sprintf("running since %s without a final result", item.StartedAt.UTC().Format(time.RFC3339))
		}
		report.Findings = append(report.Findings, Finding{
			Kind:     FindingRunningStuck,
			MatchID:  item.ID,
			LeagueID: item.LeagueID,
			Detail:   detail,
		})
	}

	report.Healthy = len(report.Findings) == 0
	if !report.Healthy {
		s.alert(ctx, report)
	}
	return report, nil
}

// checkHeartbeat flags a missing or pre-dispatch heartbeat once the daily
// run plus grace period is behind us.
func (s *WatchdogService) checkHeartbeat(ctx context.Context, dayKey string, local time.Time, loc *time.Location) (Finding, bool) {
	due := time.Date(local.Year(), local.Month(), local.Day(), s.cfg.KickoffHour, 0, 0, 0, loc).Add(s.cfg.HeartbeatGrace)
	if local.Before(due) {
		return Finding{}, false
	}

	_, found, err := s.oplockRepo.GetHeartbeat(ctx, dayKey)
	if err != nil {
		s.logger.WarnContext(ctx, "heartbeat lookup failed", "day_key", dayKey, "error", err)
		return Finding{}, false
	}
	if found {
		return Finding{}, false
	}
	return Finding{
		Kind:   FindingHeartbeatMissing,
		Detail: fmt.Sprintf("no dispatch heartbeat for %s after %s", dayKey, due.Format(time.RFC3339)),
	}, true
}

func (s *WatchdogService) alert(ctx context.Context, report WatchdogReport) {
	s.logger.WarnContext(ctx, "watchdog found problems", "day_key", report.DayKey, "findings", len(report.Findings))
	if s.alerter == nil {
		return
	}

	kinds := map[string]int{}
	for _, f := range report.Findings {
		kinds[f.Kind]++
	}
	fields := map[string]any{
		"day_key":  report.DayKey,
		"findings": len(report.Findings),
	}
	for kind, count := range kinds {
		fields[kind] = count
	}
	summary := fmt.Sprintf("league-engine watchdog: %d findings on %s", len(report.Findings), report.DayKey)
	if err := s.alerter.Alert(ctx, summary, fields); err != nil {
		s.logger.ErrorContext(ctx, "watchdog alert delivery failed", "error", err)
	}
}
