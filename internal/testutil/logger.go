// Package testutil holds shared helpers for tests: a discard logger and
// builders for conversation fixtures.
package testutil

import (
	"log/slog"
)

// DiscardLogger returns a slog.Logger that discards all output.
//
// Use this in tests to reduce noise. Equivalent to log.NewNop; prefer
// this one in packages that already import testutil for fixtures.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
