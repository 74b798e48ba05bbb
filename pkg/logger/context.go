package logger

import (
	"context"
	"log/slog"
)

type loggerKey struct{}

// With returns a context whose logger carries the extra fields.
func With(ctx context.Context, fields ...any) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey{}, From(ctx).With(fields...))
}

// WithActor scopes the logger to the authenticated user and, when acting for
// a company, its IČO.
func WithActor(ctx context.Context, userID, companyICO string) context.Context {
	if companyICO == "" {
		return With(ctx, "user_id", userID)
	}
	return With(ctx, "user_id", userID, "company_ico", companyICO)
}

// From returns the request scoped logger or the process logger.
func From(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	return LoggerWrapper()
}
