// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package logger holds the process-wide *slog.Logger used by aasctl and the
// csw-aas-go libraries.
//
// Library types accept an injected *slog.Logger where they keep one; the
// package-level helpers are for code paths that have no logger of their own.
package logger

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/spf13/viper"

	"github.com/stacklok/toolhive-core/env"
	"github.com/stacklok/toolhive-core/logging"
)

const (
	// UnstructuredLogsEnv selects text output when true (the default).
	UnstructuredLogsEnv = "UNSTRUCTURED_LOGS"

	// LogLevelEnv overrides the level chosen from the debug flag.
	LogLevelEnv = "AAS_LOG_LEVEL"

	componentKey = "component"
)

var singleton atomic.Pointer[slog.Logger]

func init() {
	singleton.Store(logging.New())
}

// Get returns the current logger.
func Get() *slog.Logger {
	return singleton.Load()
}

// Set replaces the current logger. Tests use it to capture output.
func Set(l *slog.Logger) {
	singleton.Store(l)
}

// For returns the current logger tagged with a component attribute.
func For(component string) *slog.Logger {
	return Get().With(componentKey, component)
}

// Debugf logs a formatted message at debug level.
func Debugf(msg string, args ...any) {
	Get().Debug(fmt.Sprintf(msg, args...))
}

// Debugw logs a message at debug level with key/value pairs.
func Debugw(msg string, keysAndValues ...any) {
	Get().Debug(msg, keysAndValues...)
}

// Infof logs a formatted message at info level.
func Infof(msg string, args ...any) {
	Get().Info(fmt.Sprintf(msg, args...))
}

// Infow logs a message at info level with key/value pairs.
func Infow(msg string, keysAndValues ...any) {
	Get().Info(msg, keysAndValues...)
}

// Warnf logs a formatted message at warning level.
func Warnf(msg string, args ...any) {
	Get().Warn(fmt.Sprintf(msg, args...))
}

// Warnw logs a message at warning level with key/value pairs.
func Warnw(msg string, keysAndValues ...any) {
	Get().Warn(msg, keysAndValues...)
}

// Errorf logs a formatted message at error level.
func Errorf(msg string, args ...any) {
	Get().Error(fmt.Sprintf(msg, args...))
}

// Errorw logs a message at error level with key/value pairs.
func Errorw(msg string, keysAndValues ...any) {
	Get().Error(msg, keysAndValues...)
}

// Initialize configures the logger from the process environment and the
// viper "debug" key.
func Initialize() {
	InitializeWithEnv(&env.OSReader{})
}

// InitializeWithEnv is Initialize with an injected environment reader.
func InitializeWithEnv(envReader env.Reader) {
	var opts []logging.Option

	if unstructuredLogsWithEnv(envReader) {
		opts = append(opts, logging.WithFormat(logging.FormatText))
	}

	level := slog.LevelInfo
	if viper.GetBool("debug") {
		level = slog.LevelDebug
	}
	if override, ok := levelFromEnv(envReader); ok {
		level = override
	}
	opts = append(opts, logging.WithLevel(level))

	singleton.Store(logging.New(opts...))
}

func unstructuredLogsWithEnv(envReader env.Reader) bool {
	unstructured, err := strconv.ParseBool(envReader.Getenv(UnstructuredLogsEnv))
	if err != nil {
		// unset or unparsable: keep the human-readable default
		return true
	}
	return unstructured
}

func levelFromEnv(envReader env.Reader) (slog.Level, bool) {
	raw := strings.TrimSpace(envReader.Getenv(LogLevelEnv))
	if raw == "" {
		return 0, false
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return 0, false
	}
	return level, true
}
