// Package config centralizes the runtime settings a match, the WASM
// host and the optional HTTP API read at startup: gas budgets, server
// bind address, replay directory. Every field has a Default and an
// env-var override, following the same DefaultX()/XFromEnv() pairing
// the rest of this module's ambient stack uses rather than a config
// framework.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config is the full set of runtime-tunable settings.
type Config struct {
	DefaultGas     uint64
	ReplayDir      string
	HTTPAddr       string
	LogLevel       string
}

// DefaultGas is the per-turn fuel budget a Full entity's brain starts
// with if its template doesn't specify one.
func DefaultGas() uint64 { return 10_000_000 }

// DefaultGasFromEnv reads ARENA_DEFAULT_GAS, falling back to
// DefaultGas().
func DefaultGasFromEnv() uint64 {
	return getEnvUint64("ARENA_DEFAULT_GAS", DefaultGas())
}

// DefaultReplayDir is where recorded matches are written.
func DefaultReplayDir() string { return "./replays" }

// DefaultReplayDirFromEnv reads ARENA_REPLAY_DIR.
func DefaultReplayDirFromEnv() string {
	return getEnvString("ARENA_REPLAY_DIR", DefaultReplayDir())
}

// DefaultHTTPAddr is the bind address for the optional API server.
func DefaultHTTPAddr() string { return ":8080" }

// DefaultHTTPAddrFromEnv reads ARENA_HTTP_ADDR.
func DefaultHTTPAddrFromEnv() string {
	return getEnvString("ARENA_HTTP_ADDR", DefaultHTTPAddr())
}

// DefaultLogLevel is zerolog's default verbosity.
func DefaultLogLevel() string { return "info" }

// DefaultLogLevelFromEnv reads ARENA_LOG_LEVEL.
func DefaultLogLevelFromEnv() string {
	return getEnvString("ARENA_LOG_LEVEL", DefaultLogLevel())
}

// Load builds a Config from .env (if present, via godotenv) layered
// under the process environment, then from-env helpers for each field.
func Load(envFile string) Config {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("file", envFile).Msg("failed to load env file")
		}
	}
	return Config{
		DefaultGas: DefaultGasFromEnv(),
		ReplayDir:  DefaultReplayDirFromEnv(),
		HTTPAddr:   DefaultHTTPAddrFromEnv(),
		LogLevel:   DefaultLogLevelFromEnv(),
	}
}

func getEnvString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvUint64(key string, fallback uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
