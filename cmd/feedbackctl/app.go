package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/chzyer/readline"

	"github.com/sharada257/Feedback-Management/internal/adapters/events"
	"github.com/sharada257/Feedback-Management/internal/adapters/storage"
	"github.com/sharada257/Feedback-Management/internal/application/services"
	"github.com/sharada257/Feedback-Management/internal/domain/providers"
	"github.com/sharada257/Feedback-Management/internal/infrastructure/clients/feedbackapi"
	"github.com/sharada257/Feedback-Management/internal/infrastructure/clients/redis"
	"github.com/sharada257/Feedback-Management/internal/infrastructure/clients/sqldb"
	"github.com/sharada257/Feedback-Management/internal/infrastructure/observability"
	"github.com/sharada257/Feedback-Management/pkg/config"
)

// app holds everything a command needs. It is built once per process on
// the first command that runs, so the shell shares one session and one
// feedback collection across lines.
type app struct {
	out io.Writer
	rl  *readline.Instance

	// interactive is set while the shell runs; inflight counts moves the
	// shell did not wait for.
	interactive bool
	inflight    sync.WaitGroup

	ready   bool
	cfg     *config.Config
	closers []func() error

	bus        providers.EventBus
	nav        *terminalNavigator
	session    *services.SessionService
	client     *feedbackapi.HTTPClient
	auth       *services.AuthService
	boards     *services.BoardService
	dashboard  *services.DashboardService
	collection *services.FeedbackCollection
	users      *services.UserDirectory
}

func (a *app) init(ctx context.Context) (err error) {
	if a.ready {
		return nil
	}
	// Release whatever was opened before a later step failed.
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a.cfg = cfg

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.App.Env, cfg.App.LogLevel)
	logger := observability.GetLogger()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			a.closers = append(a.closers, func() error {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return shutdown(ctx)
			})
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	store, err := openSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, store.Close)

	bus, err := openEventBus(ctx, cfg)
	if err != nil {
		return err
	}
	a.bus = bus
	a.closers = append(a.closers, bus.Close)

	a.nav = &terminalNavigator{out: a.out}
	a.session = services.NewSessionService(store, nil, a.nav, bus)
	a.client = feedbackapi.NewClient(cfg.API.BaseURL,
		feedbackapi.WithTimeout(cfg.API.Timeout),
		feedbackapi.WithTokenSource(a.session),
		feedbackapi.WithUnauthorizedHandler(a.session.HandleUnauthorized),
		feedbackapi.WithMetrics(metrics),
	)
	a.session.SetProfileFetcher(a.client)

	a.auth = services.NewAuthService(a.client, a.session)
	a.boards = services.NewBoardService(a.client)
	a.dashboard = services.NewDashboardService(a.session, a.boards, a.client)
	a.users = services.NewUserDirectory(a.client)
	a.collection = services.NewFeedbackCollection(a.client, a.session, bus, services.CollectionOptions{
		RollbackOnFailure:  cfg.Kanban.RollbackOnFailure,
		CommentConcurrency: cfg.Comments.FetchConcurrency,
		Metrics:            metrics,
	})

	logger.Debug().
		Str("api", cfg.API.BaseURL).
		Str("session_backend", cfg.Session.Backend).
		Str("event_bus", cfg.Events.Backend).
		Msg("client initialized")
	a.ready = true
	return nil
}

// Close waits for background moves, then releases backends in reverse
// order of acquisition
func (a *app) Close() {
	a.inflight.Wait()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			observability.GetLogger().Warn().Err(err).Msg("error during shutdown")
		}
	}
	a.closers = nil
	a.ready = false
}

func openSessionStore(ctx context.Context, cfg *config.Config) (providers.Storage, error) {
	switch cfg.Session.Backend {
	case config.BackendMemory:
		return storage.NewMemoryStorage(), nil

	case config.BackendRedis:
		client, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis session store: %w", err)
		}
		return storage.NewRedisStorage(client, cfg.Session.Namespace), nil

	case config.BackendSQLite:
		client, err := sqldb.NewSQLiteClient(ctx, cfg.Session.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite session store: %w", err)
		}
		store, err := storage.NewSQLStorage(ctx, client, cfg.Session.Namespace)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		return store, nil

	case config.BackendPostgres:
		client, err := sqldb.NewPostgresClient(ctx, &cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL session store: %w", err)
		}
		store, err := storage.NewSQLStorage(ctx, client, cfg.Session.Namespace)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		return store, nil

	default:
		store, err := storage.NewFileStorage(cfg.Session.FilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open session file: %w", err)
		}
		return store, nil
	}
}

type redisBus struct {
	providers.EventBus
	client *redis.Client
}

func (b *redisBus) Close() error {
	err := b.EventBus.Close()
	if cerr := b.client.Close(); err == nil {
		err = cerr
	}
	return err
}

func openEventBus(ctx context.Context, cfg *config.Config) (providers.EventBus, error) {
	if cfg.Events.Backend != config.BackendRedis {
		return events.NewMemoryEventBus(), nil
	}
	client, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis event bus: %w", err)
	}
	return &redisBus{EventBus: events.NewRedisEventBus(client), client: client}, nil
}
