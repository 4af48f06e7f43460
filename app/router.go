package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/madetoorder/storefront/app/catalog"
	"github.com/madetoorder/storefront/app/categories"
	"github.com/madetoorder/storefront/storefront"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger   *slog.Logger
	Config   *Config
	Session  *storefront.Session
	Gatherer prometheus.Gatherer
}

// NewRouter constructs the chi.Router exposing the session to consumers.
func NewRouter(params RouterParams) http.Handler {
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := params.Session

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if params.Config != nil && params.Config.RateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(params.Config.RateLimitPerMinute, time.Minute))
	}

	categoryHandler := categories.NewCategoryHandler(s.Categories, s.Catalog, logger)
	catalogHandler := catalog.NewCatalogHandler(s.Products, s.Catalog, logger)
	stateHandler := NewStateHandler(s.Load, logger, s.Categories, s.Products)

	r.Route("/categories", categoryHandler.MountRoutes)
	r.Route("/catalog", catalogHandler.MountRoutes)
	r.Get("/state", stateHandler.HandleGet)
	r.Post("/state/reload", stateHandler.HandleReload)

	if params.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(params.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}
