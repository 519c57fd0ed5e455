package api

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/lavishdadwani/Stock-Management/internal/auth"
	"github.com/lavishdadwani/Stock-Management/internal/model"
	"github.com/lavishdadwani/Stock-Management/internal/store"
)

type contextKey string

const (
	claimsKey contextKey = "claims"
	userKey   contextKey = "user"
)

// AuthMiddleware validates the bearer JWT, loads its user and checks that the
// token still belongs to the user's current session.
func AuthMiddleware(secret string, db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				jsonError(w, http.StatusUnauthorized, "no token provided", "Please log in.", nil)
				return
			}

			claims, err := auth.ValidateToken(secret, strings.TrimPrefix(header, "Bearer "))
			if errors.Is(err, auth.ErrTokenExpired) {
				if err := store.EndSession(r.Context(), db, claims.UserID, claims.SessionID()); err != nil {
					slog.Error("failed to end expired session", "user_id", claims.UserID, "error", err)
				}
				jsonError(w, http.StatusUnauthorized, "token expired", "Your session has expired. Please log in again.", nil)
				return
			}
			if err != nil {
				jsonError(w, http.StatusUnauthorized, "invalid token", "Please log in.", nil)
				return
			}

			user, err := store.GetUser(r.Context(), db, claims.UserID)
			if err != nil {
				writeError(w, r, err)
				return
			}
			if user == nil {
				jsonError(w, http.StatusUnauthorized, "invalid token", "Please log in.", nil)
				return
			}
			if !user.IsActive {
				jsonError(w, http.StatusForbidden, "account is deactivated", "Account is deactivated. Please contact an administrator.", nil)
				return
			}
			if user.SessionID == nil || *user.SessionID != claims.SessionID() {
				jsonError(w, http.StatusUnauthorized, "session ended", "You have been logged out. Please log in again.", nil)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			ctx = context.WithValue(ctx, userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole returns middleware that admits only the given roles.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r.Context())
			if user == nil {
				jsonError(w, http.StatusUnauthorized, "not authenticated", "Please log in.", nil)
				return
			}
			if !model.HasRole(user.Role, allowed...) {
				slog.Warn("access denied", "user_id", user.ID, "role", user.Role, "path", r.URL.Path)
				jsonError(w, http.StatusForbidden, "access denied", "You do not have permission to do this.", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetClaims retrieves the JWT claims from the context.
func GetClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// CurrentUser retrieves the authenticated user from the context.
func CurrentUser(ctx context.Context) *model.User {
	user, _ := ctx.Value(userKey).(*model.User)
	return user
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs HTTP requests with method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		attrs := []any{
			"method", r.Method,
			"uri", r.URL.RequestURI(),
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond),
		}
		if id := middleware.GetReqID(r.Context()); id != "" {
			attrs = append(attrs, "request_id", id)
		}
		if rec.status >= http.StatusInternalServerError {
			slog.Error("request", attrs...)
			return
		}
		slog.Info("request", attrs...)
	})
}
