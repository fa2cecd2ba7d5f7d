package httpapi

import "context"

type contextKey string

const (
	requestIDKey contextKey = "bookingRequestID"
)

// ContextWithRequestID stores the booking request identifier extracted from
// the URL path.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext retrieves the booking request identifier, if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok
}
