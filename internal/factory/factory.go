package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/wordduel/internal/api"
	"github.com/mcoot/wordduel/internal/config"
	"github.com/mcoot/wordduel/internal/dependencies/clock"
	"github.com/mcoot/wordduel/internal/dependencies/random"
	"github.com/mcoot/wordduel/internal/model"
	"github.com/mcoot/wordduel/internal/services/audit"
	"github.com/mcoot/wordduel/internal/services/dictionary"
	"github.com/mcoot/wordduel/internal/services/game"
	"github.com/mcoot/wordduel/internal/services/validation"
	"github.com/mcoot/wordduel/internal/storage"
	"github.com/mcoot/wordduel/internal/storage/memory"
	redisstorage "github.com/mcoot/wordduel/internal/storage/redis"
	sqlitestorage "github.com/mcoot/wordduel/internal/storage/sqlite"
	"github.com/mcoot/wordduel/internal/transport/ws"
)

// App contains all wired application components
type App struct {
	// Audit store, nil when auditing is off
	AuditStore storage.AuditStore

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	DictionaryService *dictionary.Service
	Validator         *validation.Validator
	Auditor           audit.Auditor
	Engine            *game.Engine
	Hub               *ws.Hub
	GameConfig        model.GameConfig

	recorder *audit.Recorder
	logger   *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// GameConfig holds the option lists and defaults (optional)
	// If zero value, defaults to model.DefaultGameConfig()
	GameConfig model.GameConfig
	// AuditBackend selects where game records go: "none", "memory", "redis" or "sqlite"
	// If empty, defaults to "none"
	AuditBackend string
	// RedisConfig holds Redis connection settings (required if AuditBackend is "redis")
	RedisConfig *redisstorage.Config
	// SQLitePath is the database file (required if AuditBackend is "sqlite")
	SQLitePath string
}

// FromConfig builds a factory Config from the server configuration
func FromConfig(cfg config.Config, logger *slog.Logger) Config {
	fc := Config{
		Logger:       logger,
		GameConfig:   cfg.Game,
		AuditBackend: cfg.AuditBackend,
		SQLitePath:   cfg.SQLitePath,
	}
	if cfg.AuditBackend == config.AuditRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		fc.RedisConfig = &redisCfg
	}
	return fc
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := newAuditStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	gameCfg := cfg.GameConfig
	if gameCfg.DefaultRounds == 0 {
		gameCfg = model.DefaultGameConfig()
	}

	return newWithDependencies(store, clock.New(), random.New(), gameCfg, logger), nil
}

func newAuditStore(ctx context.Context, cfg Config) (storage.AuditStore, error) {
	switch cfg.AuditBackend {
	case "", config.AuditNone:
		return nil, nil
	case config.AuditMemory:
		return memory.New(), nil
	case config.AuditRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when AuditBackend is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	case config.AuditSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLitePath required when AuditBackend is sqlite")
		}
		return sqlitestorage.New(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("invalid AuditBackend %q", cfg.AuditBackend)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.AuditStore, clk clock.Clock, rnd random.Random, gameCfg model.GameConfig, logger *slog.Logger) *App {
	app := &App{
		AuditStore: store,
		Clock:      clk,
		Random:     rnd,
		GameConfig: gameCfg,
		Auditor:    audit.Discard{},
		logger:     logger,
	}

	if store != nil {
		app.recorder = audit.NewRecorder(store, logger, audit.DefaultQueueSize)
		app.Auditor = app.recorder
	}

	app.DictionaryService = dictionary.New(logger)
	app.Validator = validation.New(app.DictionaryService)
	app.Hub = ws.NewHub(logger)
	app.Engine = game.NewEngine(app.Validator, app.Hub, app.Auditor, gameCfg, clk, rnd, logger)

	return app
}

// Handler returns the HTTP handler serving the API and the websocket endpoint
func (a *App) Handler(allowedOrigins []string) http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:         a.logger,
		Engine:         a.Engine,
		GameConfig:     a.GameConfig,
		Dictionary:     a.DictionaryService,
		WebSocket:      ws.NewHandler(a.Hub, a.Engine, a.GameConfig, allowedOrigins, a.logger),
		AllowedOrigins: allowedOrigins,
	})
}

// Close stops every room, disconnects clients and flushes pending audit
// records. ctx bounds the flush.
func (a *App) Close(ctx context.Context) error {
	a.Engine.Shutdown()
	a.Hub.Close()
	if a.recorder != nil {
		return a.recorder.Close(ctx)
	}
	return nil
}
