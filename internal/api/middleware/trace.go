package middleware

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/clipflow-api/internal/api/shared"
)

// TraceIDHeader is the response header carrying the request's trace ID.
// Clients polling an operation can quote it when reporting a problem, so
// operators can find the matching log lines.
const TraceIDHeader = "X-Clipflow-Trace-Id"

// TraceMiddleware adds a trace ID to the request context and echoes it in
// the response headers. It should be applied early in the middleware chain
// so all subsequent handlers have access to the trace ID.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.SetTraceID(r.Context())
		traceID := shared.GetTraceID(ctx)

		w.Header().Set(TraceIDHeader, traceID)

		log := slog.With(slog.String("trace_id", traceID))
		log.Debug("request started",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
