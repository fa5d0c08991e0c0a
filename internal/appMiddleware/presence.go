package appMiddleware

import (
	"net/http"

	"varta/server/internal/services"
)

// PresenceMiddleware stamps the caller's last_seen on every authenticated
// request. Best effort: a failed touch never fails the request.
func PresenceMiddleware(users services.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, ok := UserIDFromContext(r.Context()); ok {
				_ = users.SetPresence(r.Context(), userID, true)
			}
			next.ServeHTTP(w, r)
		})
	}
}
