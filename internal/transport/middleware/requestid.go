package middleware

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/frahmantamala/leave-management/pkg/logger"
)

const TraceHeader = "X-Trace-ID"

// RequestID reuses an incoming trace id or mints one, and stores a logger
// carrying it in the request context.
func RequestID(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(TraceHeader)
			if traceID == "" {
				traceID = uuid.NewString()
			}

			// inject into context
			ctx := logger.Attach(r.Context(), base.With("trace_id", traceID))

			// propagate back to response
			w.Header().Set(TraceHeader, traceID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
