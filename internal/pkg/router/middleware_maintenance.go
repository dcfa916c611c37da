package router

import (
	"net/http"
	"slices"

	"github.com/shandysiswandi/passwordless/internal/pkg/config"
)

// middlewareMaintenance reads the switch on every request so a config reload takes
// effect without a restart.
func middlewareMaintenance(cfg config.Config) Middleware {
	return func(next http.Handler) http.Handler {
		if cfg == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.GetBool("app.maintenance.enabled") &&
				slices.Contains(cfg.GetArray("app.maintenance.endpoints"), matchedRoutePath(r)) {
				writeJSON(w, errorResponse{Message: "Service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
