package logger

import (
	"log/slog"
	"os"
)

// New returns a JSON stdout logger shared by handlers, services, and workers.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
