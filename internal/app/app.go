package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/riskibarqy/fpl-insight/external/fpl"
	"github.com/riskibarqy/fpl-insight/internal/config"
	"github.com/riskibarqy/fpl-insight/internal/domain/analysis"
	"github.com/riskibarqy/fpl-insight/internal/domain/playerstats"
	repocache "github.com/riskibarqy/fpl-insight/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/fpl-insight/internal/infrastructure/repository/csvfile"
	"github.com/riskibarqy/fpl-insight/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/fpl-insight/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/fpl-insight/internal/interfaces/httpapi"
	"github.com/riskibarqy/fpl-insight/internal/platform/cache"
	"github.com/riskibarqy/fpl-insight/internal/platform/id"
	"github.com/riskibarqy/fpl-insight/internal/platform/logging"
	"github.com/riskibarqy/fpl-insight/internal/platform/resilience"
	"github.com/riskibarqy/fpl-insight/internal/scheduler"
	"github.com/riskibarqy/fpl-insight/internal/usecase"
)

const (
	historyRowsCacheTTL = 10 * time.Minute
	redisKeyPrefix      = "fpl-insight:"
)

// App holds the HTTP server and the resources it owns.
type App struct {
	Server    *http.Server
	Scheduler *scheduler.Scheduler
	History   *usecase.HistoryService

	closers []func() error
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	a := &App{}

	backend, err := newCacheBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if closer, ok := backend.(interface{ Close() error }); ok {
		a.closers = append(a.closers, closer.Close)
	}

	primaryName, primary, err := a.newHistorySource(cfg, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	history := usecase.NewHistoryService(
		primaryName, primary,
		config.HistorySourceSample, memory.NewPlayerStatsRepository(memory.SamplePlayerStats()),
		logger,
	)
	a.History = history

	client := fpl.NewClient(fpl.ClientConfig{
		BaseURL:   cfg.FPLBaseURL,
		UserAgent: cfg.FPLUserAgent,
		Timeout:   cfg.FPLTimeout,
		Retry: resilience.RetryPolicy{
			MaxRetries: cfg.FPLMaxRetries,
			BaseDelay:  cfg.FPLRetryDelay,
		},
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.FPLCircuitEnabled,
			FailureThreshold: cfg.FPLCircuitFailureCount,
			OpenTimeout:      cfg.FPLCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.FPLCircuitHalfOpenMaxReq,
		},
		Cache: backend,
		CacheTTL: fpl.CacheTTL{
			Bootstrap: cfg.CacheBootstrapTTL,
			Picks:     cfg.CachePicksTTL,
			History:   cfg.CachePicksTTL,
		},
		Logger: logger,
	})

	managerRepo := fpl.NewManagerRepository(client)
	directoryRepo := repocache.NewPlayerDirectoryRepository(fpl.NewPlayerRepository(client), cache.NewStore(cfg.CacheDirectoryTTL))
	gameweekRepo := repocache.NewGameweekRepository(fpl.NewGameweekRepository(client), cache.NewStore(cfg.CacheBootstrapTTL))

	engineOpts := analysis.DefaultOptions()
	engineOpts.UnderperformFraction = cfg.AnalysisUnderperformFraction
	engineOpts.TopValueCount = cfg.AnalysisTopValueCount

	gameweekSvc := usecase.NewGameweekService(gameweekRepo, logger)
	analysisSvc := usecase.NewAnalysisService(
		managerRepo,
		directoryRepo,
		history,
		gameweekSvc,
		analysis.NewEngine(engineOpts),
		id.NewUUIDGenerator(),
		logger,
	)
	seasonSvc := usecase.NewSeasonService(managerRepo, analysisSvc, gameweekSvc, cfg.SeasonWorkers, logger)
	statsSvc := usecase.NewStatsService(history)

	handler := httpapi.NewHandler(analysisSvc, seasonSvc, statsSvc, history, gameweekSvc, client.BreakerState, logger)

	routerOpts := httpapi.RouterOptions{
		SwaggerEnabled:     cfg.SwaggerEnabled,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}
	if cfg.MCPEnabled {
		routerOpts.MCP = httpapi.NewMCPHandler(httpapi.NewMCPServer(handler, cfg.ServiceVersion))
	}

	a.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(handler, logger, routerOpts),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if cfg.SchedulerEnabled {
		a.Scheduler, err = scheduler.New(client, directoryRepo, gameweekRepo, scheduler.Options{
			DirectoryInterval: cfg.DirectoryRefreshInterval,
			EventsInterval:    cfg.EventsRefreshInterval,
		}, logger)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	logger.Info("app initialized",
		"history_source", primaryName,
		"cache_backend", cfg.CacheBackend,
		"mcp_enabled", cfg.MCPEnabled,
		"scheduler_enabled", cfg.SchedulerEnabled,
	)
	return a, nil
}

// Close releases the database and cache connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func newCacheBackend(ctx context.Context, cfg config.Config, logger *logging.Logger) (cache.Backend, error) {
	if cfg.CacheBackend != config.CacheBackendRedis {
		return cache.NewMemoryBackend(), nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	backend, err := cache.NewRedisBackend(pingCtx, cache.RedisConfig{
		Addr:      cfg.RedisAddr,
		Password:  cfg.RedisPassword,
		DB:        cfg.RedisDB,
		KeyPrefix: redisKeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis cache: %w", err)
	}
	logger.Info("redis cache connected", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
	return backend, nil
}

func (a *App) newHistorySource(cfg config.Config, logger *logging.Logger) (string, playerstats.Repository, error) {
	switch cfg.HistorySource {
	case config.HistorySourceSample:
		return config.HistorySourceSample, memory.NewPlayerStatsRepository(memory.SamplePlayerStats()), nil
	case config.HistorySourcePostgres:
		db, err := OpenDB(cfg)
		if err != nil {
			return "", nil, err
		}
		a.closers = append(a.closers, db.Close)
		repo := repocache.NewPlayerStatsRepository(postgres.NewPlayerStatsRepository(db), cache.NewStore(historyRowsCacheTTL))
		return config.HistorySourcePostgres, repo, nil
	default:
		return config.HistorySourceCSV, csvfile.NewPlayerStatsRepository(cfg.HistoryCSVPath, logger), nil
	}
}

// OpenDB opens an instrumented Postgres pool for the historical store.
func OpenDB(cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithDBName(dbNameFromURL(dsn)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}
