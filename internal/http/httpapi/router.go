package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"reelmate/internal/http/handlers"
	"reelmate/internal/middleware"
)

type Options struct {
	Logger          zerolog.Logger
	CORSOrigins     []string
	RateLimitPerMin int
	// StaticDir is served under /static when set.
	StaticDir string
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		middleware.RequestID(opts.Logger),
		middleware.Logger,
		chimw.Recoverer,
		middleware.CORS(opts.CORSOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get(handlers.OpenAPIPath, app.OpenAPIJSON)
	r.Get(handlers.DocsPath, app.OpenAPIDocs)

	r.Route("/v1/videos", func(r chi.Router) {
		if opts.RateLimitPerMin > 0 {
			r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute, http.MethodPost))
		}
		r.Post("/generate", app.VideosGenerate)
		r.Get("/jobs", app.VideoJobs)
		r.Get("/jobs/export", app.VideoExport)
		r.Route("/jobs/{job_id}", func(r chi.Router) {
			r.Get("/", app.VideoJob)
			r.Get("/status", app.VideoStatus)
			r.Post("/cancel", app.VideoCancel)
			r.Post("/retry", app.VideoRetry)
			r.Get("/artifacts.zip", app.VideoArtifacts)
		})
	})

	r.Get("/v1/pricing/estimate", app.PricingEstimate)
	r.Get("/v1/avatars", app.Avatars)
	r.Get("/v1/voices", app.Voices)

	if opts.StaticDir != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir)))
		r.Get("/static/*", fs.ServeHTTP)
	}

	return r
}
