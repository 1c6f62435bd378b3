// Package bootstrap initializes logging configuration before other packages.
//
// This package MUST be imported first (using a blank import) in main.go so the
// global zerolog logger is configured before any command logs.
//
// Go's initialization order:
//  1. Imported packages initialize in dependency order (depth-first)
//  2. Within a package, files are sorted by name, init() runs in order
//  3. The main package initializes last
package bootstrap

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LevelEnv selects the log level (trace, debug, info, warn, error).
const LevelEnv = "TUNNEL_LOG_LEVEL"

func init() {
	Configure(os.Getenv(LevelEnv))
}

// Configure sets the global zerolog level and installs a console writer on stderr.
// Unknown or empty levels fall back to info.
func Configure(level string) {
	if level == "" {
		level = "info"
	}

	logLevel, err := zerolog.ParseLevel(level)
	if err != nil || logLevel == zerolog.NoLevel {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
	}).With().Timestamp().Logger()
}
