package logger

import (
	"log/slog"
	"os"
)

// SetupGlobal installs the process-wide slog handler. Debug switches the
// level; showSource adds file:line to every record.
func SetupGlobal(debug bool, showSource bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: showSource,
	}

	handler := slog.NewTextHandler(os.Stdout, opts)
	slog.SetDefault(slog.New(handler))
}
