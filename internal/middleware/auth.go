// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/openboard/openboard/internal/apperr"
	"github.com/openboard/openboard/internal/auth"
	"github.com/openboard/openboard/pkg/logger"
)

type contextKey string

const userIDKey contextKey = "user_id"

// AuthMiddleware validates Bearer tokens and places the authenticated
// user id in the request context.
type AuthMiddleware struct {
	issuer    *auth.TokenIssuer
	log       *logger.Logger
	skipPaths map[string]bool
	// optionalPaths are authenticated when a token is present but also
	// served anonymously. Method GET only.
	optionalPrefixes []string
}

// NewAuthMiddleware creates an authentication middleware. Requests to
// skipPaths pass through untouched; GET requests under optionalPrefixes
// are authenticated opportunistically.
func NewAuthMiddleware(issuer *auth.TokenIssuer, log *logger.Logger, skipPaths, optionalPrefixes []string) *AuthMiddleware {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	skip := make(map[string]bool)
	for _, path := range skipPaths {
		skip[path] = true
	}
	return &AuthMiddleware{
		issuer:           issuer,
		log:              log,
		skipPaths:        skip,
		optionalPrefixes: optionalPrefixes,
	}
}

// Handler returns the middleware handler.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if header == "" {
			if m.optional(r) {
				next.ServeHTTP(w, r)
				return
			}
			m.respondError(w, apperr.Unauthorized(apperr.CodeInvalidToken, "missing Authorization header"))
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			m.respondError(w, apperr.Unauthorized(apperr.CodeInvalidToken, "malformed Authorization header"))
			return
		}

		claims, err := m.issuer.Verify(parts[1])
		if err != nil {
			m.log.WithError(err).WithField("path", r.URL.Path).Warn("token validation failed")
			m.respondError(w, apperr.FromError(err))
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) optional(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	for _, prefix := range m.optionalPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

func (m *AuthMiddleware) respondError(w http.ResponseWriter, err *apperr.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus())
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":  err.Code,
		"error": err.Message,
	})
}

// UserID extracts the authenticated user id from the context. It returns
// 0 for anonymous requests.
func UserID(ctx context.Context) int64 {
	id, _ := ctx.Value(userIDKey).(int64)
	return id
}

// WithUserID returns a context carrying the given user id. Intended for
// tests.
func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}
