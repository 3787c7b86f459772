package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"onmodel/internal/http/handlers"
	"onmodel/internal/infra"
	"onmodel/internal/middleware"
)

// NewRouter assembles the HTTP surface with the ambient middleware chain.
func NewRouter(app *handlers.App, cfg *infra.Config, logger infra.Logger, lookup middleware.CountryLookup) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.UserContext)
	r.Use(middleware.Locale(cfg.DefaultLocale, lookup))

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/listings", func(r chi.Router) {
		r.With(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute)).Post("/generate", app.GenerateListing)
		r.Get("/", app.ListListings)
		r.Get("/{listing_id}", app.GetListing)
		r.Get("/{listing_id}/download", app.DownloadListing)
	})

	r.Route("/v1/settings", func(r chi.Router) {
		r.Get("/", app.GetSettings)
		r.Put("/", app.SaveSettings)
	})

	return r
}
