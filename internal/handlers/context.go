package handlers

import (
	"net/http"

	"varta/server/internal/appMiddleware"
)

func userIDFrom(r *http.Request) (int, bool) {
	return appMiddleware.UserIDFromContext(r.Context())
}
