// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging configures the zerolog logger shared by the CLI and the
// engine. Logs go to stderr so that stdout carries only the result line.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultLevel is used when no level is configured.
const DefaultLevel = zerolog.InfoLevel

// Setup builds a console logger writing to w at the named level and
// installs it as the global logger. An unknown level name leaves the
// logger at DefaultLevel and is returned as an error.
func Setup(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := ParseLevel(level)
	logger := zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
	log.Logger = logger
	return logger, err
}

// ParseLevel maps a level name to a zerolog level. The empty string means
// DefaultLevel.
func ParseLevel(level string) (zerolog.Level, error) {
	level = strings.TrimSpace(level)
	if level == "" {
		return DefaultLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return DefaultLevel, fmt.Errorf("unknown log level %q: %w", level, err)
	}
	return lvl, nil
}

// Component returns parent tagged with a component name.
func Component(parent zerolog.Logger, name string) zerolog.Logger {
	return parent.With().Str("component", name).Logger()
}
