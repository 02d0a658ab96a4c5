package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/wordduel/internal/api/apierr"
	"github.com/mcoot/wordduel/internal/api/handler"
	"github.com/mcoot/wordduel/internal/api/middleware"
	"github.com/mcoot/wordduel/internal/model"
	"github.com/mcoot/wordduel/internal/services/game"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	Engine         game.EngineInterface
	GameConfig     model.GameConfig
	Dictionary     handler.DictionaryStatus
	WebSocket      http.Handler
	AllowedOrigins []string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewNotFoundError())
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewMethodNotAllowedError())
	})

	configHandler := handler.NewConfigHandler(cfg.GameConfig)
	roomHandler := handler.NewRoomHandler(cfg.Engine)
	healthHandler := handler.NewHealthHandler(cfg.Dictionary)

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)
	corsMiddleware := middleware.CORS(cfg.AllowedOrigins)

	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	// Static configuration, fetched by clients before they connect
	r.Handle("/api/config", corsMiddleware(http.HandlerFunc(configHandler.Get))).
		Methods(http.MethodGet, http.MethodOptions)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(corsMiddleware)
	api.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/rooms/{code}", roomHandler.Get).Methods(http.MethodGet, http.MethodOptions)

	if cfg.WebSocket != nil {
		r.Handle("/ws", cfg.WebSocket).Methods(http.MethodGet)
	}

	return r
}
