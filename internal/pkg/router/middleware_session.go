package router

import (
	"log/slog"
	"net/http"

	"github.com/shandysiswandi/passwordless/internal/pkg/session"
)

type sessionDecoder interface {
	Name() string
	Decode(value string) (string, error)
}

// middlewareSession verifies the session cookie and exposes its id through the
// request context. It never rejects: endpoints decide whether a session is required.
func middlewareSession(dec sessionDecoder) Middleware {
	return func(next http.Handler) http.Handler {
		if dec == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ck, err := r.Cookie(dec.Name())
			if err != nil || ck.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			sid, err := dec.Decode(ck.Value)
			if err != nil {
				slog.DebugContext(r.Context(), "ignoring session cookie", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(session.SetID(r.Context(), sid)))
		})
	}
}
