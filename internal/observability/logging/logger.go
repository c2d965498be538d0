package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// sensitiveKeys are attributes that carry credentials or KYC identifiers.
var sensitiveKeys = map[string]bool{
	"authorization":         true,
	"api_key":               true,
	"identification_number": true,
}

func NewJSONLogger(service, level string) *slog.Logger {
	return NewJSONLoggerTo(os.Stdout, service, level)
}

// NewJSONLoggerTo writes JSON records to w, tagged with the service name.
// Sensitive attributes are masked down to their last four characters.
func NewJSONLoggerTo(w io.Writer, service, level string) *slog.Logger {
	lvl := parseLevel(level)
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   lvl <= slog.LevelDebug,
		ReplaceAttr: redactAttr,
	})
	return slog.New(handler).With("service", service)
}

func redactAttr(_ []string, attr slog.Attr) slog.Attr {
	if !sensitiveKeys[strings.ToLower(attr.Key)] {
		return attr
	}
	return slog.String(attr.Key, Mask(attr.Value.String()))
}

// Mask keeps the last four characters of value.
func Mask(value string) string {
	value = strings.TrimSpace(value)
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
