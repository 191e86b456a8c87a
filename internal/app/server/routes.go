package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	// Регистрация OpenAPI-описания для swagger UI.
	_ "github.com/magabrotheeeer/signup-service/docs"
	"github.com/magabrotheeeer/signup-service/internal/http/handlers/health"
	"github.com/magabrotheeeer/signup-service/internal/http/handlers/signup"
	"github.com/magabrotheeeer/signup-service/internal/http/handlers/signuppending"
	"github.com/magabrotheeeer/signup-service/internal/http/middlewarectx"
)

// Routes зависимости маршрутов HTTP API.
type Routes struct {
	Signup        signup.Service
	SignupPending signuppending.Service
	Checks        map[string]health.Check
	Limiter       *middlewarectx.IPRateLimiter
	Gatherer      prometheus.Gatherer
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, routes Routes) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Route("/api", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger, routes.Limiter))
		r.Post("/signup", signup.New(logger, routes.Signup).ServeHTTP)
		r.Post("/signup-pending", signuppending.New(logger, routes.SignupPending).ServeHTTP)
	})

	r.Get("/healthz", health.New(logger, routes.Checks).ServeHTTP)
	r.Handle("/metrics", promhttp.HandlerFor(routes.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
}
