package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ligatr/league-engine/external/alerting"
	"github.com/ligatr/league-engine/external/artifactstore"
	"github.com/ligatr/league-engine/external/jobqueue"
	"github.com/ligatr/league-engine/external/simengine"
	"github.com/ligatr/league-engine/internal/config"
	"github.com/ligatr/league-engine/internal/domain/fixture"
	"github.com/ligatr/league-engine/internal/domain/league"
	"github.com/ligatr/league-engine/internal/domain/matchplan"
	"github.com/ligatr/league-engine/internal/domain/oplock"
	"github.com/ligatr/league-engine/internal/domain/slot"
	"github.com/ligatr/league-engine/internal/domain/standing"
	"github.com/ligatr/league-engine/internal/domain/team"
	"github.com/ligatr/league-engine/internal/infrastructure/account"
	cacherepo "github.com/ligatr/league-engine/internal/infrastructure/repository/cache"
	"github.com/ligatr/league-engine/internal/infrastructure/repository/memory"
	"github.com/ligatr/league-engine/internal/infrastructure/repository/postgres"
	"github.com/ligatr/league-engine/internal/interfaces/httpapi"
	basecache "github.com/ligatr/league-engine/internal/platform/cache"
	idgen "github.com/ligatr/league-engine/internal/platform/id"
	"github.com/ligatr/league-engine/internal/platform/logging"
	"github.com/ligatr/league-engine/internal/platform/resilience"
	"github.com/ligatr/league-engine/internal/platform/txn"
	"github.com/ligatr/league-engine/internal/usecase"
)

// storeSet bundles the transaction runner with the repositories of one
// storage driver so the wiring below does not care which driver backs it.
type storeSet struct {
	runner    txn.Runner
	leagues   league.Repository
	teams     team.Repository
	fixtures  fixture.Repository
	slots     slot.Repository
	standings standing.Repository
	plans     matchplan.Repository
	oplocks   oplock.Repository
}

// NewHTTPServer wires repositories, services and the HTTP transport. The
// returned cleanup releases what the wiring opened, currently the
// database pool, and is safe to call after the server shuts down.
func NewHTTPServer(ctx context.Context, cfg config.Config, logger *logging.Logger) (*http.Server, func(), error) {
	if cfg.HTTPAddr == "" {
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}

	stores, cleanup, err := openStores(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	// The transactional services read and write through the raw
	// repositories; caching their reads would let a stale row slip into
	// an optimistic transaction. Only the public read path is cached.
	leagueReads := stores.leagues
	standingReads := stores.standings
	teamReads := stores.teams
	if cfg.CacheEnabled {
		store := basecache.NewStore(cfg.CacheTTL)
		leagueReads = cacherepo.NewLeagueRepository(stores.leagues, store)
		standingReads = cacherepo.NewStandingRepository(stores.standings, store)
		teamReads = cacherepo.NewTeamRepository(stores.teams, store)
	}

	idGen := idgen.NewRandomGenerator()

	botService := usecase.NewBotService(stores.teams, idGen, cfg.BotRating, logger)
	calendarService := usecase.NewCalendarService(
		stores.leagues,
		stores.slots,
		stores.fixtures,
		stores.plans,
		stores.standings,
		stores.teams,
		logger,
	)
	assignmentService := usecase.NewAssignmentService(
		stores.runner,
		stores.leagues,
		stores.slots,
		stores.standings,
		stores.teams,
		idGen,
		calendarService,
		usecase.AssignmentConfig{
			Capacity:    cfg.LeagueCapacity,
			Season:      cfg.LeagueSeason,
			Timezone:    cfg.LeagueTimezone,
			KickoffHour: cfg.LeagueKickoffHour,
		},
		logger,
	)
	slotService := usecase.NewSlotService(
		stores.runner,
		stores.slots,
		stores.teams,
		stores.standings,
		stores.fixtures,
		botService,
		logger,
	)

	var artifacts usecase.ArtifactStore
	if cfg.ArtifactStoreEnabled {
		s3Store, err := artifactstore.NewS3Store(ctx, artifactstore.S3StoreConfig{
			Endpoint:        cfg.ArtifactS3Endpoint,
			Region:          cfg.ArtifactS3Region,
			AccessKeyID:     cfg.ArtifactS3AccessKeyID,
			SecretAccessKey: cfg.ArtifactS3SecretAccessKey,
			Bucket:          cfg.ArtifactS3Bucket,
			Timeout:         cfg.ArtifactS3Timeout,
		}, logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("build artifact store: %w", err)
		}
		artifacts = s3Store
	}

	finalizeService := usecase.NewFinalizeService(
		stores.runner,
		stores.fixtures,
		stores.standings,
		stores.leagues,
		stores.teams,
		artifacts,
		logger,
	)

	var queue usecase.JobQueue
	if cfg.QStashEnabled {
		queue = jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
			BaseURL:          cfg.QStashBaseURL,
			Token:            cfg.QStashToken,
			TargetBaseURL:    cfg.QStashTargetBaseURL,
			Retries:          cfg.QStashRetries,
			InternalJobToken: cfg.InternalJobToken,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.QStashCircuitEnabled,
				FailureThreshold: cfg.QStashCircuitFailureCount,
				OpenTimeout:      cfg.QStashCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.QStashCircuitHalfOpenMaxReq,
			},
		}, logger)
	}

	var sim usecase.SimulationDispatcher
	if cfg.SimEngineEnabled {
		sim = simengine.NewClient(simengine.ClientConfig{
			BaseURL:    cfg.SimEngineBaseURL,
			Token:      cfg.SimEngineToken,
			Timeout:    cfg.SimEngineTimeout,
			MaxRetries: cfg.SimEngineMaxRetries,
			Logger:     logger,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.SimEngineCircuitEnabled,
				FailureThreshold: cfg.SimEngineCircuitFailureCount,
				OpenTimeout:      cfg.SimEngineCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.SimEngineCircuitHalfOpenMax,
			},
		})
	}

	dispatchService := usecase.NewDispatchService(
		stores.runner,
		stores.oplocks,
		stores.fixtures,
		stores.leagues,
		stores.teams,
		stores.plans,
		queue,
		sim,
		finalizeService,
		usecase.DispatchConfig{
			ShardCount: cfg.DispatchShardCount,
			Timezone:   cfg.LeagueTimezone,
		},
		logger,
	)

	var alerter usecase.Alerter
	if cfg.AlertWebhookEnabled {
		alerter = alerting.NewWebhookAlerter(alerting.WebhookAlerterConfig{
			URL:     cfg.AlertWebhookURL,
			Token:   cfg.AlertWebhookToken,
			Timeout: cfg.AlertWebhookTimeout,
		}, logger)
	}

	watchdogService := usecase.NewWatchdogService(
		stores.fixtures,
		stores.oplocks,
		alerter,
		usecase.WatchdogConfig{
			Timezone:              cfg.LeagueTimezone,
			KickoffHour:           cfg.LeagueKickoffHour,
			HeartbeatGrace:        cfg.WatchdogHeartbeatGrace,
			ScheduledOverdueAfter: cfg.WatchdogScheduledOverdue,
			RunningStuckAfter:     cfg.WatchdogRunningStuck,
			MaxSamples:            cfg.WatchdogMaxSamples,
		},
		logger,
	)

	leagueService := usecase.NewLeagueService(leagueReads, stores.fixtures, standingReads)

	verifier := account.NewClient(account.ClientConfig{
		BaseURL:        cfg.AccountBaseURL,
		IntrospectPath: cfg.AccountIntrospectPath,
		AdminKey:       cfg.AccountAdminKey,
		Timeout:        cfg.AccountTimeout,
		CacheTTL:       cfg.AccountCacheTTL,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.AccountCircuitEnabled,
			FailureThreshold: cfg.AccountCircuitFailureCount,
			OpenTimeout:      cfg.AccountCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.AccountCircuitHalfOpenMaxReq,
		},
	}, logger)

	handler := httpapi.NewHandler(
		leagueService,
		assignmentService,
		slotService,
		calendarService,
		dispatchService,
		finalizeService,
		watchdogService,
		teamReads,
		logger,
	)
	router := httpapi.NewRouter(handler, verifier, logger, cfg.SwaggerEnabled, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return server, cleanup, nil
}

func openStores(ctx context.Context, cfg config.Config, logger *logging.Logger) (storeSet, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		logger.Info("using in-memory store", "driver", cfg.StoreDriver)
		return storeSet{
			runner:    memory.NewTxnRunner(),
			leagues:   memory.NewLeagueRepository(nil),
			teams:     memory.NewTeamRepository(nil),
			fixtures:  memory.NewFixtureRepository(nil),
			slots:     memory.NewSlotRepository(),
			standings: memory.NewStandingRepository(),
			plans:     memory.NewMatchPlanRepository(),
			oplocks:   memory.NewOpLockRepository(),
		}, func() {}, nil
	case config.StoreDriverPostgres:
		db, err := postgres.Open(ctx, postgres.ConnConfig{
			DSN:             normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary),
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
			QueryFormatter:  formatDBQueryForTrace,
		})
		if err != nil {
			return storeSet{}, nil, fmt.Errorf("open postgres: %w", err)
		}
		logger.Info("postgres store ready", "database", dbNameFromURL(cfg.DBURL))

		runner := postgres.NewTxnRunner(db, txn.RetryConfig{
			MaxAttempts: cfg.TxMaxAttempts,
			Backoff:     cfg.TxBackoff,
		}, logger)

		return storeSet{
			runner:    runner,
			leagues:   postgres.NewLeagueRepository(db),
			teams:     postgres.NewTeamRepository(db),
			fixtures:  postgres.NewFixtureRepository(db),
			slots:     postgres.NewSlotRepository(db),
			standings: postgres.NewStandingRepository(db),
			plans:     postgres.NewMatchPlanRepository(db),
			oplocks:   postgres.NewOpLockRepository(db),
		}, func() { _ = db.Close() }, nil
	default:
		return storeSet{}, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
