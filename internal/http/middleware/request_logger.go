package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/grupoblue/lead-insights/pkg/logging"
)

// RequestLogger emits structured logs for every HTTP request. The gateway
// forwards the authenticated user in X-User-ID; when present it is attached
// to both log lines so lookups can be traced per user.
func RequestLogger(logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := r.Header.Get("X-Request-ID")
			if reqID == "" {
				reqID = uuid.NewString()
			}
			log := logger.With(
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", reqID,
			)
			if user := r.Header.Get("X-User-ID"); user != "" {
				log = log.With("user", user)
			}
			log.Info("request started", "remote_ip", r.RemoteAddr)
			next.ServeHTTP(w, r)
			log.Info("request completed", "duration_ms", time.Since(start).Milliseconds())
		})
	}
}
