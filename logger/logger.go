// Package logger provides structured logging for the assistant daemon.
//
// It wraps log/slog with a package-level DefaultLogger whose level comes from
// LOG_LEVEL, and redacts API keys from any string it is handed.
package logger

import (
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

// DefaultLogger is the global structured logger instance.
var DefaultLogger *slog.Logger

func init() {
	DefaultLogger = New(os.Stderr, ParseLevel(os.Getenv("LOG_LEVEL")), "text")
}

// New builds a logger writing to w. format is "text" or "json".
func New(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel maps debug|info|warn|error to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Configure replaces DefaultLogger.
func Configure(level, format string) {
	DefaultLogger = New(os.Stderr, ParseLevel(level), format)
}

func Info(msg string, args ...any) {
	DefaultLogger.Info(msg, args...)
}

func Debug(msg string, args ...any) {
	DefaultLogger.Debug(msg, args...)
}

func Warn(msg string, args ...any) {
	DefaultLogger.Warn(msg, args...)
}

func Error(msg string, args ...any) {
	DefaultLogger.Error(msg, args...)
}

var apiKeyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`sk-[a-zA-Z0-9_-]{20,}`),  // OpenAI keys
	regexp.MustCompile(`AIza[a-zA-Z0-9_-]{35}`),   // Google keys
	regexp.MustCompile(`Bearer\s+[a-zA-Z0-9_.-]+`), // bearer tokens
}

// RedactSensitiveData masks API keys, keeping the first four characters.
func RedactSensitiveData(s string) string {
	for _, re := range apiKeyPatterns {
		s = re.ReplaceAllStringFunc(s, func(m string) string {
			if len(m) <= 4 {
				return "[REDACTED]"
			}
			return m[:4] + "...[REDACTED]"
		})
	}
	return s
}
