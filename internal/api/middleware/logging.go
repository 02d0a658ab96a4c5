package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/wordduel/internal/middleware"
)

// Logging creates request logging middleware for the API
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Logging(logger)
}

// CORS allows browser clients served from another origin to call the API
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return middleware.CORS(allowedOrigins)
}
