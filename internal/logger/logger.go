// Package logger wraps phuslu/log behind the leveled printf helpers the rest of
// the codebase calls.
package logger

import (
	"strings"

	"github.com/phuslu/log"
)

var std = log.Logger{
	Level:      log.InfoLevel,
	TimeFormat: "15:04:05",
	Writer:     &log.ConsoleWriter{},
}

// SetLevel adjusts the global level. Unknown names fall back to info.
func SetLevel(level string) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		std.Level = log.DebugLevel
	case "warn", "warning":
		std.Level = log.WarnLevel
	case "error":
		std.Level = log.ErrorLevel
	default:
		std.Level = log.InfoLevel
	}
}

func Debugf(format string, args ...any) { std.Debug().Msgf(format, args...) }
func Infof(format string, args ...any)  { std.Info().Msgf(format, args...) }
func Warnf(format string, args ...any)  { std.Warn().Msgf(format, args...) }
func Errorf(format string, args ...any) { std.Error().Msgf(format, args...) }
