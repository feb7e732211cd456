package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"escaperoom/internal/devtools"
	"escaperoom/internal/engine"
	"escaperoom/internal/progress"
	"escaperoom/internal/rooms"
	"escaperoom/internal/telemetry"
)

// App owns the long-lived pieces behind one engine: logger, storage
// medium and the optional dev inspector.
type App struct {
	cfg Config

	logger *telemetry.Logger
	medium progress.Medium
	store  *progress.Store
	engine *engine.Engine
	events *EventLog
	demo   *devtools.Manager

	devMu     sync.Mutex
	devServer *http.Server
	devAddr   string
}

func New(ctx context.Context, cfg Config) (*App, error) {
	logger, err := telemetry.New(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	catalog, err := rooms.NewLoader().LoadCatalog(ctx, cfg.RoomsPath)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	medium, err := OpenMedium(ctx, cfg.Storage)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	store := progress.NewStore(medium, progress.WithKey(cfg.Storage.Key), progress.WithLogger(logger))
	eng := engine.New(catalog, store, engine.WithLogger(logger))
	events := NewEventLog(defaultEventLogSize)
	eng.Subscribe(events.Record)

	logger.Info("app.start", map[string]any{
		"backend": cfg.Storage.Backend,
		"rooms":   catalog.Len(),
		"catalog": catalog.Title(),
	})
	return &App{
		cfg:    cfg,
		logger: logger,
		medium: medium,
		store:  store,
		engine: eng,
		events: events,
		demo:   devtools.NewManager(),
	}, nil
}

// OpenMedium connects the configured storage backend and prepares its
// schema where one is needed.
func OpenMedium(ctx context.Context, cfg StorageConfig) (progress.Medium, error) {
	switch cfg.Backend {
	case BackendMemory:
		return progress.NewMemoryMedium(), nil
	case BackendSQLite, "":
		m, err := progress.NewSQLiteMedium(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := m.EnsureSchema(ctx); err != nil {
			_ = m.Close()
			return nil, err
		}
		return m, nil
	case BackendPostgres:
		m, err := progress.NewPostgresMedium(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := m.EnsureSchema(ctx); err != nil {
			_ = m.Close()
			return nil, err
		}
		return m, nil
	case BackendRedis:
		return progress.NewRedisMedium(ctx, progress.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.RedisTTL,
		})
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}

func (a *App) Engine() *engine.Engine { return a.engine }

func (a *App) Store() *progress.Store { return a.store }

func (a *App) Logger() *telemetry.Logger { return a.logger }

func (a *App) Events() *EventLog { return a.events }

func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.devMu.Lock()
	if a.devServer != nil {
		_ = a.devServer.Shutdown(ctx)
		a.devServer, a.devAddr = nil, ""
	}
	a.devMu.Unlock()
	a.engine.Close()
	if err := a.medium.Close(); err != nil {
		a.logger.Error("app.close_medium_failed", map[string]any{"error": err})
	}
	_ = a.logger.Close()
}
