// Package eventlog writes batch outcome events as one JSON object per line.
package eventlog

import (
	"io"
	"log/slog"
)

// TimestampFormat is the layout of the "timestamp" field.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// NewHandler returns a JSON handler emitting {timestamp, level, ...payload}.
func NewHandler(w io.Writer, level slog.Leveler) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceAttr,
	})
}

// New returns a logger writing outcome events to w.
func New(w io.Writer) *slog.Logger {
	return slog.New(NewHandler(w, slog.LevelInfo))
}

func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}

	switch a.Key {
	case slog.TimeKey:
		return slog.String("timestamp", a.Value.Time().Format(TimestampFormat))
	case slog.LevelKey:
		return slog.String(slog.LevelKey, levelName(a.Value.Any()))
	case slog.MessageKey:
		// Events carry their payload as attributes only.
		if a.Value.String() == "" {
			return slog.Attr{}
		}
	}
	return a
}

func levelName(v any) string {
	level, ok := v.(slog.Level)
	if !ok {
		return "INFO"
	}
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARNING"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
