// Package logging is the structured, context-aware logging surface shared by
// the server, the notifier and the CLI. The slog implementation also emits
// attributes stored on the context with ContextWith, so per-request fields
// such as request_id reach every log line of that request.
package logging

import "context"

// Logger takes key/value pairs after the message:
//
//	log.Info(ctx, "user registered", "user_id", id)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes args.
	With(args ...any) Logger
}

type ctxKey struct{}

// ContextWith returns a copy of ctx carrying args in addition to any pairs
// already stored on it.
func ContextWith(ctx context.Context, args ...any) context.Context {
	prev := FromContext(ctx)
	merged := make([]any, 0, len(prev)+len(args))
	merged = append(merged, prev...)
	merged = append(merged, args...)
	return context.WithValue(ctx, ctxKey{}, merged)
}

// FromContext returns the pairs stored by ContextWith.
func FromContext(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	args, _ := ctx.Value(ctxKey{}).([]any)
	return args
}
