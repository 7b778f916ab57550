package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"fitstudio/internal/http/handlers"
	"fitstudio/internal/middleware"
)

// NewRouter assembles the HTTP surface: middleware chain first, then the
// versioned API routes. The country lookup may be nil when no GeoIP database
// is configured.
func NewRouter(app *handlers.App, country middleware.CountryLookup) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		middleware.RequestID,
		chimw.Recoverer,
		middleware.Logger(*app.Logger),
		middleware.CORS(splitOrigins(app.Config.CORSOrigins)),
		middleware.RateLimit(app.Config.RateLimitPerMin, time.Minute),
		middleware.I18N("en", country),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)

	r.Route("/v1/auth", func(r chi.Router) {
		r.Get("/status", app.AuthStatus)
		r.Post("/connect", app.AuthConnect)
	})

	r.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", app.SessionCreate)
		r.Route("/{session_id}", func(r chi.Router) {
			r.Get("/", app.SessionGet)
			r.Delete("/", app.SessionDelete)
			r.Put("/assets/{slot}", app.AssetUpload)
			r.Delete("/assets/{slot}", app.AssetClear)
			r.Put("/scene", app.SceneSet)
			r.Post("/composite", app.CompositeGenerate)
			r.Get("/composite", app.CompositeImage)
			r.Post("/animation", app.AnimationStart)
			r.Get("/animation", app.AnimationStatus)
			r.Get("/animation/video", app.AnimationVideo)
			r.Get("/bundle", app.BundleDownload)
		})
	})

	r.Get("/v1/scenes", app.Scenes)
	r.Get("/v1/stats", app.StatsSummary)

	return r
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
