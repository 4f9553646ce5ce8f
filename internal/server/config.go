package server

import (
	"log"
	"strconv"
	"strings"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvLogLevel    = "COLOR_PROBE_LOG_LEVEL"
	EnvWindowSize  = "COLOR_PROBE_WINDOW_SIZE"
	EnvMaxParallel = "COLOR_PROBE_MAX_PARALLEL"
)

// Config holds server settings.
type Config struct {
	// LogLevel is "info" or "debug". Debug logs every tool call.
	LogLevel string

	// WindowSize is the point-sampling window used when a tool call does
	// not specify one.
	WindowSize int

	// MaxParallel bounds concurrent measurements in color_measure_points.
	MaxParallel int
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		LogLevel:    "info",
		WindowSize:  9,
		MaxParallel: 4,
	}
}

// ConfigFromEnv builds a Config from environment variables looked up with
// getenv (usually os.Getenv). Invalid values are logged and replaced by the
// defaults.
func ConfigFromEnv(getenv func(string) string) Config {
	cfg := DefaultConfig()

	if v := strings.ToLower(strings.TrimSpace(getenv(EnvLogLevel))); v != "" {
		switch v {
		case "debug", "info":
			cfg.LogLevel = v
		default:
			log.Printf("Ignoring %s=%q: want debug or info", EnvLogLevel, v)
		}
	}

	cfg.WindowSize = positiveInt(getenv, EnvWindowSize, cfg.WindowSize)
	cfg.MaxParallel = positiveInt(getenv, EnvMaxParallel, cfg.MaxParallel)
	return cfg
}

// Debug reports whether debug logging is enabled.
func (c Config) Debug() bool {
	return c.LogLevel == "debug"
}

func positiveInt(getenv func(string) string, key string, def int) int {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		log.Printf("Ignoring %s=%q: want a positive integer", key, v)
		return def
	}
	return n
}
