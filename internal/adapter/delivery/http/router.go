// Package http provides the HTTP delivery layer for the URL shortener service.
// It wires the chi router with its middleware and maps requests onto the URL
// use case, rendering records and errors as JSON.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/vadimbarashkov/shorten-api/internal/validation"
	"github.com/vadimbarashkov/shorten-api/pkg/metrics"
	"github.com/vadimbarashkov/shorten-api/pkg/middleware/recoverer"

	httpSwagger "github.com/swaggo/http-swagger"
)

// SwaggerPath is where the OpenAPI document is read from, relative to the
// working directory.
const SwaggerPath = "./docs/swagger.yml"

// NewRouter initializes a chi router with middleware and routes for the URL shortener API.
// A nil m disables request metrics and the /metrics endpoint.
func NewRouter(logger *httplog.Logger, urlUseCase urlUseCase, m *metrics.Metrics) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"POST", "GET", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	if m != nil {
		r.Use(m.Middleware)
	}
	r.Use(recoverer.New(logger.Logger))
	r.Use(middleware.StripSlashes)

	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Get("/", handleIndex)
	r.Get("/ping", handlePing)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))

	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, SwaggerPath)
	})

	h := newURLHandler(urlUseCase, validation.New())

	r.Route("/shorten", func(r chi.Router) {
		r.Post("/", h.shortenURL)

		r.Route("/{shortCode}", func(r chi.Router) {
			r.Get("/", h.resolveShortCode)
			r.Put("/", h.modifyURL)
			r.Delete("/", h.deleteURL)
			r.Get("/stats", h.getURLStats)
		})
	})

	r.Get("/{shortCode}", h.redirect)

	return r
}
