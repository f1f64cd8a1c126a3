// Package logging wires the process-wide slog logger: JSON to stdout, with
// an optional Postgres handler for ERROR records attached by the composition
// root once the database is up.
package logging

import (
	"log/slog"
	"os"
)

// Setup installs the stdout JSON logger. It runs before the database
// connects, so startup failures are still captured in structured form.
func Setup() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}
