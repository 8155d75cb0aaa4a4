// Package logging builds the structured logger used by every command.
package logging

import (
	"io"
	"log/slog"
)

// New returns a JSON logger writing to w.  The level is Debug in
// development mode and Info otherwise.
func New(w io.Writer, dev bool) *slog.Logger {
	var programLevel = new(slog.LevelVar) // Info by default
	if dev {
		programLevel.Set(slog.LevelDebug)
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: programLevel}))
}

// Install makes l the process-wide default logger and returns it.
func Install(l *slog.Logger) *slog.Logger {
	slog.SetDefault(l)
	return l
}
