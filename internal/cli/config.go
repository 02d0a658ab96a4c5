package cli

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Config holds CLI configuration
type Config struct {
	ServerURL string
	Name      string
	Output    string
	Verbose   bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("WORDDUEL_SERVER", "http://localhost:3001"),
		Name:      getEnvOrDefault("WORDDUEL_NAME", defaultName()),
		Output:    "text",
		Verbose:   false,
	}
}

// Validate checks the flags that every command depends on
func (c *Config) Validate() error {
	if c.Output != "text" && c.Output != "json" {
		return fmt.Errorf("unknown output format %q (want text or json)", c.Output)
	}
	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid server URL %q", c.ServerURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server URL must be http or https, got %q", u.Scheme)
	}
	return nil
}

// WebSocketURL returns the game socket endpoint for the configured server
func (c *Config) WebSocketURL() string {
	base := strings.TrimSuffix(c.ServerURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/ws"
}

func defaultName() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "Player"
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
