// Package logging is the structured logger shared by the HTTP layer, the
// workflow sessions and the stores. Calls carry the request context so the
// slog handler can see request-scoped values.
package logging

import "context"

// Logger takes a message and alternating key/value pairs:
//
//	log.Error(ctx, "workflow operation failed", "phase", "generation", "error", err)
type Logger interface {
	Info(ctx context.Context, msg string, args ...any)
	// Warn is for degraded but working setups, like the in-memory store.
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With binds pairs to every later record, e.g. a session id.
	With(args ...any) Logger
}
