package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ligatr/league-engine/internal/domain/fixture"
	"github.com/ligatr/league-engine/internal/domain/league"
	"github.com/ligatr/league-engine/internal/domain/matchplan"
	"github.com/ligatr/league-engine/internal/domain/team"
	"github.com/ligatr/league-engine/internal/infrastructure/repository/memory"
	"github.com/ligatr/league-engine/internal/platform/logging"
)

// harness wires every service against the in-memory infrastructure, the
// same shape the app wires for local runs.
type harness struct {
	runner       *memory.TxnRunner
	leagueRepo   *memory.LeagueRepository
	teamRepo     *memory.TeamRepository
	fixtureRepo  *memory.FixtureRepository
	slotRepo     *memory.SlotRepository
	standingRepo *memory.StandingRepository
	planRepo     *memory.MatchPlanRepository
	oplockRepo   *memory.OpLockRepository

	queue   *recordingQueue
	store   *memoryArtifactStore
	alerter *recordingAlerter
	sim     *recordingSim

	bots       *BotService
	leagues    *LeagueService
	calendar   *CalendarService
	assignment *AssignmentService
	slots      *SlotService
	finalize   *FinalizeService
	dispatch   *DispatchService
	watchdog   *WatchdogService
}

func newHarness(capacity int) *harness {
	h := &harness{
		runner:       memory.NewTxnRunner(),
		leagueRepo:   memory.NewLeagueRepository(nil),
		teamRepo:     memory.NewTeamRepository(nil),
		fixtureRepo:  memory.NewFixtureRepository(nil),
		slotRepo:     memory.NewSlotRepository(),
		standingRepo: memory.NewStandingRepository(),
		planRepo:     memory.NewMatchPlanRepository(),
		oplockRepo:   memory.NewOpLockRepository(),
		queue:        &recordingQueue{},
		store:        newMemoryArtifactStore(),
		alerter:      &recordingAlerter{},
		sim:          &recordingSim{},
	}

	logger := logging.NewNop()
	idGen := &seqIDGen{}

	h.bots = NewBotService(h.teamRepo, idGen, 0, logger)
	h.leagues = NewLeagueService(h.leagueRepo, h.fixtureRepo, h.standingRepo)
	h.calendar = NewCalendarService(h.leagueRepo, h.slotRepo, h.fixtureRepo, h.planRepo, h.standingRepo, h.teamRepo, logger)
	h.assignment = NewAssignmentService(
		h.runner, h.leagueRepo, h.slotRepo, h.standingRepo, h.teamRepo,
		idGen, h.calendar,
		AssignmentConfig{Capacity: capacity, Season: 1, Timezone: "Europe/Istanbul", KickoffHour: 19},
		logger,
	)
	h.slots = NewSlotService(h.runner, h.slotRepo, h.teamRepo, h.standingRepo, h.fixtureRepo, h.bots, logger)
	h.finalize = NewFinalizeService(h.runner, h.fixtureRepo, h.standingRepo, h.leagueRepo, h.teamRepo, h.store, logger)
	h.dispatch = NewDispatchService(
		h.runner, h.oplockRepo, h.fixtureRepo, h.leagueRepo, h.teamRepo, h.planRepo,
		h.queue, h.sim, h.finalize,
		DispatchConfig{ShardCount: 2, Timezone: "Europe/Istanbul"},
		logger,
	)
	h.watchdog = NewWatchdogService(h.fixtureRepo, h.oplockRepo, h.alerter, WatchdogConfig{}, logger)

	return h
}

func (h *harness) addHumanTeam(id, name string) team.Team {
	t := team.Team{ID: id, Name: name, OwnerID: "owner-" + id}
	_, _ = h.teamRepo.CreateIfAbsent(context.Background(), t)
	return t
}

func (h *harness) addLeague(l league.League) league.League {
	_ = h.leagueRepo.Create(context.Background(), l)
	return l
}

func (h *harness) addFixture(f fixture.Fixture) fixture.Fixture {
	if f.Status == "" {
		f.Status = fixture.StatusScheduled
	}
	_ = h.fixtureRepo.CreateBatch(context.Background(), []fixture.Fixture{f})
	return f
}

type seqIDGen struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDGen) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%012x", g.n), nil
}

type enqueuedJob struct {
	Path    string
	Payload any
	Delay   time.Duration
	DedupID string
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []enqueuedJob
	err  error
}

func (q *recordingQueue) Enqueue(_ context.Context, path string, payload any, delay time.Duration, dedupID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, enqueuedJob{Path: path, Payload: payload, Delay: delay, DedupID: dedupID})
	return nil
}

func (q *recordingQueue) all() []enqueuedJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]enqueuedJob, len(q.jobs))
	copy(out, q.jobs)
	return out
}

type memoryArtifactStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	getErr  error
}

func newMemoryArtifactStore() *memoryArtifactStore {
	return &memoryArtifactStore{objects: make(map[string][]byte)}
}

func (s *memoryArtifactStore) Get(_ context.Context, path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	body, ok := s.objects[path]
	if !ok {
		return nil, fmt.Errorf("object %s not found", path)
	}
	return body, nil
}

func (s *memoryArtifactStore) Put(_ context.Context, path string, body []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = body
	return nil
}

type recordingAlerter struct {
	mu        sync.Mutex
	summaries []string
}

func (a *recordingAlerter) Alert(_ context.Context, summary string, _ map[string]any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.summaries = append(a.summaries, summary)
	return nil
}

func (a *recordingAlerter) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.summaries)
}

type recordingSim struct {
	mu      sync.Mutex
	matches []string
	plans   []matchplan.Plan
	err     error
}

func (s *recordingSim) DispatchMatch(_ context.Context, match fixture.Fixture, plan matchplan.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.matches = append(s.matches, match.ID)
	s.plans = append(s.plans, plan)
	return nil
}

func (s *recordingSim) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.matches)
}
