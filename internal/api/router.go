package api

import (
	"net/http"
	"time"

	"cdr.dev/slog"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"

	"lc_accountability/internal/api/handler"
	"lc_accountability/internal/api/middleware"
	"lc_accountability/internal/common/security"
)

func NewRouter(
	tokens *security.TokenIssuer,
	reportHandler *handler.ReportHandler,
	logger slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger.Named("http")))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Searches "Authorization: Bearer T" and puts the verified token in context.
	r.Use(jwtauth.Verifier(tokens.Auth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Group(func(authed chi.Router) {
			authed.Use(middleware.Authenticator)
			reportHandler.RegisterRoutes(authed)
		})
	})

	return r
}
