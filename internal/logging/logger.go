// Package logging provides leveled logging and event tracing for outbreak.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - An EventLogger for structured JSONL traces of per-individual epidemic
//     events (infections, diagnoses, deaths, interventions)
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// LevelTrace is a custom slog level below Debug for per-individual event
// logging. At this level every infection and diagnosis is reported.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Label the custom trace level
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// EventLogger writes structured epidemic events to a JSONL file. It is safe
// for concurrent use so parallel replicates may share one trace. A nil
// EventLogger is safe to use; all methods are no-ops on nil receiver.
type EventLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewEventLogger opens path for append and returns an event logger.
// Returns nil if the file cannot be opened. All methods are nil-safe.
func NewEventLogger(path string) *EventLogger {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}
	return &EventLogger{file: f}
}

// Log writes one event as a single JSONL line with the given kind. A "time"
// field is added automatically. The caller's map is not mutated. Safe to
// call on nil receiver.
func (el *EventLogger) Log(kind string, fields map[string]any) {
	if el == nil || el.file == nil {
		return
	}

	entry := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		entry[k] = v
	}
	entry["event"] = kind
	entry["time"] = time.Now().UTC().Format(time.RFC3339Nano)

	el.mu.Lock()
	defer el.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')
	_, _ = el.file.Write(data)
}

// Close closes the underlying file. Safe to call on nil receiver.
func (el *EventLogger) Close() {
	if el == nil || el.file == nil {
		return
	}

	el.mu.Lock()
	defer el.mu.Unlock()

	el.file.Close()
	el.file = nil
}
