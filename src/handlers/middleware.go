// backend/src/handlers/middleware.go
package handlers

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/username/momovisor/backend/src/config"
	"github.com/username/momovisor/backend/src/logger"
	"github.com/username/momovisor/backend/src/utils"
	"golang.org/x/crypto/bcrypt"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// ContextualLoggerMiddleware creates a logger with a requestID for each request.
func ContextualLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()

		ctxLogger := logger.L.With(slog.String("requestID", requestID))

		ctx := logger.ToContext(r.Context(), ctxLogger)
		ctx = context.WithValue(ctx, requestIDContextKey, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// BasicAuthMiddleware protects the API with HTTP basic auth. The password is
// stored as a bcrypt hash in config. When no user is configured the check is
// disabled (development only; LoadConfig already warns about it).
func BasicAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if config.Cfg.APIAuthUser == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, password, ok := r.BasicAuth()
		if !ok {
			requireAuth(w, r)
			return
		}

		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(config.Cfg.APIAuthUser)) == 1
		passErr := bcrypt.CompareHashAndPassword([]byte(config.Cfg.APIAuthPasswordHash), []byte(password))
		if !userMatch || passErr != nil {
			logger.FromContext(r.Context()).Warn("Basic auth failure", "path", r.URL.Path, "user", user)
			requireAuth(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func requireAuth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", `Basic realm="MoMo Transactions API"`)
	utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
}
