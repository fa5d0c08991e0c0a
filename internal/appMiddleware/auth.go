package appMiddleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"varta/server/internal/utils"
)

type contextKey struct{ name string }

var userIDKey = contextKey{"user_id"}

// UserIDFromContext returns the authenticated user id attached by the auth
// gate. The second return is false on unauthenticated requests.
func UserIDFromContext(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(userIDKey).(int)
	return userID, ok
}

// WithUserID is exposed for handler tests.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// AuthMiddleware validates the session token from the auth_token cookie or
// the Authorization header and attaches the caller's id to the context.
func AuthMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := tokenFromRequest(r)
			if tokenStr == "" {
				log.Debug().Str("path", r.URL.Path).Msg("missing session token")
				writeUnauthorized(w, "Unauthorized: No token provided")
				return
			}

			userID, err := utils.ParseToken(tokenStr, secret)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("invalid session token")
				writeUnauthorized(w, "Unauthorized: Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie("auth_token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenStr == authHeader {
		return ""
	}
	return tokenStr
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"message":"` + message + `"}`))
}
