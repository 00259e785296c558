// Package config loads the process configuration consumed by the runner.
// Values are read once per FromEnv call; a single run always operates on a
// consistent snapshot and never re-reads the environment mid-stream.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults applied when the corresponding environment variable is unset or
// unparsable.
const (
	DefaultConnectTimeout    = 10 * time.Second
	DefaultInactivityTimeout = 2 * time.Minute
	DefaultMockDelay         = 800 * time.Millisecond
)

// Config is an immutable snapshot of the process configuration for one or
// more runs. An empty Endpoint means no live backend is configured and the
// runner goes straight to the scripted stream.
type Config struct {
	// Endpoint is the base URL of the agent backend (LangGraph-style API).
	Endpoint string
	// APIKey is sent as the X-Api-Key header when non-empty.
	APIKey string
	// MockMode forces the scripted stream even when an endpoint is set.
	MockMode bool
	// ConnectTimeout bounds thread/run creation against the backend.
	ConnectTimeout time.Duration
	// InactivityTimeout bounds the silence between valid chunks once
	// streaming. It is not a total-duration cap.
	InactivityTimeout time.Duration
	// MockDelay is the artificial pacing between scripted events.
	MockDelay time.Duration
}

// Default returns a Config with library defaults and no backend endpoint.
func Default() Config {
	return Config{
		ConnectTimeout:    DefaultConnectTimeout,
		InactivityTimeout: DefaultInactivityTimeout,
		MockDelay:         DefaultMockDelay,
	}
}

// FromEnv builds a Config snapshot from the environment, loading a .env file
// first when present (missing files are ignored).
//
// Recognized variables:
//
//	POLYTRADER_BACKEND_URL        backend base URL (unset => mock stream)
//	POLYTRADER_API_KEY            backend API key
//	POLYTRADER_MOCK_MODE          "true"/"1" forces the scripted stream
//	POLYTRADER_CONNECT_TIMEOUT    Go duration, e.g. "10s"
//	POLYTRADER_INACTIVITY_TIMEOUT Go duration, e.g. "2m"
//	POLYTRADER_MOCK_DELAY         Go duration between scripted events
func FromEnv() Config {
	_ = godotenv.Load()

	cfg := Default()
	cfg.Endpoint = os.Getenv("POLYTRADER_BACKEND_URL")
	cfg.APIKey = os.Getenv("POLYTRADER_API_KEY")
	cfg.MockMode = boolEnv("POLYTRADER_MOCK_MODE")
	cfg.ConnectTimeout = durationEnv("POLYTRADER_CONNECT_TIMEOUT", cfg.ConnectTimeout)
	cfg.InactivityTimeout = durationEnv("POLYTRADER_INACTIVITY_TIMEOUT", cfg.InactivityTimeout)
	cfg.MockDelay = durationEnv("POLYTRADER_MOCK_DELAY", cfg.MockDelay)

	return cfg
}

func boolEnv(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
