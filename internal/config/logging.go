package config

import (
	"fmt"
	"log/slog"
	"strings"
)

// LevelTrace sits below debug and carries full wire payloads (LLM and
// MCP request/response JSON). The value -8 is the common convention
// for a trace level in slog-based code.
const LevelTrace = slog.Level(-8)

// logLevels maps config strings to slog levels. The empty string means
// the default.
var logLevels = map[string]slog.Level{
	"":        slog.LevelInfo,
	"trace":   LevelTrace,
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// ParseLogLevel converts a configured level name to its slog.Level,
// case-insensitively and ignoring surrounding whitespace.
func ParseLogLevel(s string) (slog.Level, error) {
	level, ok := logLevels[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (valid: trace, debug, info, warn, error)", s)
	}
	return level, nil
}

// ReplaceLogLevelNames is an slog.HandlerOptions.ReplaceAttr function
// that renders LevelTrace as "TRACE". Plain slog prints unknown levels
// relative to the nearest named one ("DEBUG-4").
func ReplaceLogLevelNames(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if level, ok := a.Value.Any().(slog.Level); ok && level == LevelTrace {
		a.Value = slog.StringValue("TRACE")
	}
	return a
}
