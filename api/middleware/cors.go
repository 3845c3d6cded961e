package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
)

var (
	devOrigins   = []string{"http://localhost:3000", "http://localhost:5173"}
	corsMethods  = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	corsRequest  = []string{"Accept", "Authorization", "Content-Type", idempotencyHeader, requestIDHeader}
	corsExposed  = []string{requestIDHeader, replayHeader, "Retry-After", "X-Access-Token"}
	preflightTTL = 5 * time.Minute
)

// CORS applies the browser origin policy. With no configured origins only
// the local dev frontends are allowed.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = devOrigins
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   corsMethods,
		AllowedHeaders:   corsRequest,
		ExposedHeaders:   corsExposed,
		AllowCredentials: true,
		MaxAge:           int(preflightTTL.Seconds()),
	})
}
