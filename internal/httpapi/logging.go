package httpapi

import (
	"context"
	"log/slog"

	"github.com/example/campus-reservations/internal/logging"
)

// handlerLogger resolves the request-scoped logger and tags it with the
// handler and operation handling the call.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handler, operation string, attrs ...any) *slog.Logger {
	base := append([]any{
		slog.String("handler", handler),
		slog.String("operation", operation),
	}, attrs...)
	return logging.Component(ctx, fallback, "httpapi", base...)
}
