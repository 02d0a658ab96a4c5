package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/mcoot/wordduel/internal/model"
)

// Audit backends
const (
	AuditNone   = "none"
	AuditMemory = "memory"
	AuditRedis  = "redis"
	AuditSQLite = "sqlite"
)

// Config is the server configuration read from the environment
type Config struct {
	Host           string
	Port           int
	AllowedOrigins []string
	LogLevel       slog.Level

	Game model.GameConfig

	DictionaryPath         string
	DictionaryFallbackPath string

	AuditBackend string
	RedisURL     string
	SQLitePath   string
}

// Default returns the configuration used when no variables are set
func Default() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           3001,
		AllowedOrigins: []string{"*"},
		LogLevel:       slog.LevelInfo,
		Game:           model.DefaultGameConfig(),
		AuditBackend:   AuditNone,
		SQLitePath:     "data/audit.db",
	}
}

// Load reads an optional .env file into the process environment, then parses
// it. Variables already set in the environment win over the file.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return Parse(os.Getenv)
}

// Parse builds a Config from a variable lookup. Missing or non-numeric values
// fall back to the defaults.
func Parse(getenv func(string) string) (Config, error) {
	cfg := Default()

	cfg.Host = stringOr(getenv("HOST"), cfg.Host)
	cfg.Port = intOr(getenv("PORT"), cfg.Port)
	if origins := splitList(getenv("ALLOWED_ORIGINS")); len(origins) > 0 {
		cfg.AllowedOrigins = origins
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(v)); err == nil {
			cfg.LogLevel = level
		}
	}

	cfg.Game.LetterTimeOptions = intListOr(getenv("LETTER_TIME_OPTIONS"), cfg.Game.LetterTimeOptions)
	cfg.Game.DefaultLetterTime = intOr(getenv("DEFAULT_LETTER_TIME"), cfg.Game.DefaultLetterTime)
	cfg.Game.WordTimeOptions = intListOr(getenv("WORD_TIME_OPTIONS"), cfg.Game.WordTimeOptions)
	cfg.Game.DefaultWordTime = intOr(getenv("DEFAULT_WORD_TIME"), cfg.Game.DefaultWordTime)
	cfg.Game.RoundsOptions = intListOr(getenv("ROUNDS_OPTIONS"), cfg.Game.RoundsOptions)
	cfg.Game.DefaultRounds = intOr(getenv("DEFAULT_ROUNDS"), cfg.Game.DefaultRounds)

	cfg.DictionaryPath = strings.TrimSpace(getenv("DICTIONARY_PATH"))
	cfg.DictionaryFallbackPath = strings.TrimSpace(getenv("DICTIONARY_FALLBACK_PATH"))

	cfg.AuditBackend = strings.ToLower(stringOr(getenv("AUDIT_BACKEND"), cfg.AuditBackend))
	cfg.RedisURL = strings.TrimSpace(getenv("REDIS_URL"))
	cfg.SQLitePath = stringOr(getenv("SQLITE_PATH"), cfg.SQLitePath)

	return cfg, cfg.Validate()
}

// Validate checks settings that have no sensible fallback
func (c Config) Validate() error {
	switch c.AuditBackend {
	case AuditNone, AuditMemory, AuditSQLite:
	case AuditRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL required when AUDIT_BACKEND=redis")
		}
	default:
		return fmt.Errorf("invalid AUDIT_BACKEND %q: must be none, memory, redis or sqlite", c.AuditBackend)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	return nil
}

// Addr returns host:port
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func stringOr(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

func intOr(v string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// intListOr parses a comma separated list, skipping entries that are not
// positive integers. An empty result keeps the default.
func intListOr(v string, def []int) []int {
	var out []int
	for _, part := range splitList(v) {
		if n, err := strconv.Atoi(part); err == nil && n > 0 {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
