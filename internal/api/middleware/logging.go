package middleware

import (
	"net/http"
	"time"

	"cdr.dev/slog"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// RequestLogger logs one line per request once the response is written.
func RequestLogger(logger slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			fields := []slog.Field{
				slog.F("method", r.Method),
				slog.F("path", r.URL.Path),
				slog.F("status", ww.Status()),
				slog.F("bytes", ww.BytesWritten()),
				slog.F("duration", time.Since(start)),
				slog.F("request_id", chiMiddleware.GetReqID(r.Context())),
			}
			if ww.Status() >= http.StatusInternalServerError {
				logger.Warn(r.Context(), "request failed", fields...)
				return
			}
			logger.Debug(r.Context(), "request served", fields...)
		})
	}
}
