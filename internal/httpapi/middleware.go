package httpapi

import (
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/example/campus-reservations/internal/logging"
)

// Middleware wraps an http.Handler with cross-cutting behavior.
type Middleware func(http.Handler) http.Handler

// RequestLogger assigns each request a sequential id, stores a tagged logger
// in the context and logs method, path, and duration on completion.
func RequestLogger(logger *slog.Logger) Middleware {
	var counter atomic.Uint64
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			id := counter.Add(1)
			reqLogger := logger.With(
				slog.Uint64("request_seq", id),
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
			)
			ctx := logging.ContextWithLogger(req.Context(), reqLogger)

			start := time.Now()
			next.ServeHTTP(w, req.WithContext(ctx))
			reqLogger.Info("request completed", slog.Duration("duration", time.Since(start)))
		})
	}
}

// RequireAdminToken guards mutating catalog endpoints. The caller presents
// the raw token as a bearer credential and it is checked against the
// configured argon2id hash.
func RequireAdminToken(tokenHash string, logger *slog.Logger) Middleware {
	resp := newResponder(logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			token, ok := bearerToken(req)
			if !ok {
				resp.writeError(w, http.StatusUnauthorized, "missing_token", "Se requiere un token de administración.")
				return
			}
			if err := VerifyToken(tokenHash, token); err != nil {
				handlerLogger(req.Context(), logger, "middleware", "RequireAdminToken").
					Warn("admin token rejected", slog.String("error", err.Error()))
				resp.writeError(w, http.StatusUnauthorized, "invalid_token", "El token de administración no es válido.")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func bearerToken(req *http.Request) (string, bool) {
	header := req.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token, token != ""
}
