// Package api serves the catalog over HTTP under /api.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/jacentio/recipes/internal/catalog"
	"github.com/jacentio/recipes/internal/images"
)

// Headers set on successful writes, read by the admin UI.
const (
	HeaderAlert      = "X-Recipes-Alert"
	HeaderParams     = "X-Recipes-Params"
	HeaderTotalCount = "X-Total-Count"
)

// alertPrefix namespaces alert keys.
const alertPrefix = "recipesApp"

// Options configures the handler returned by New.
type Options struct {
	// Images serves /api/images. Nil disables the image endpoints.
	Images *images.Service

	// Registry receives the HTTP metrics and is exposed on /metrics.
	// Nil disables metrics.
	Registry *prometheus.Registry

	// AllowedOrigins lists CORS origins. Empty disables CORS headers.
	AllowedOrigins []string

	Logger *slog.Logger
}

// New builds the API handler over cat.
func New(cat *catalog.Catalog, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := mux.NewRouter()
	if opts.Registry != nil {
		r.Use(newMetrics(opts.Registry).middleware)
		r.Handle("/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	if opts.Images != nil {
		registerImages(api, opts.Images, logger)
	}
	register(api, cat.Authors, logger)
	register(api, cat.Recipes, logger)
	register(api, cat.Ingredients, logger)

	if len(opts.AllowedOrigins) == 0 {
		return r
	}
	c := cors.New(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Accept"},
		ExposedHeaders: []string{HeaderAlert, HeaderParams, HeaderTotalCount, "Link", "Location"},
	})
	return c.Handler(r)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
