package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"researchd/internal/http/handlers"
	"researchd/internal/middleware"
)

// Options tunes the router middlewares.
type Options struct {
	DefaultLocale   string
	RateLimitPerMin int
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.Logger,
		middleware.Locale(opts.DefaultLocale),
	)
	if opts.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/documents", func(r chi.Router) {
		r.Post("/", app.Upload)
	})

	r.Post("/v1/generate", app.Generate)

	r.Route("/v1/jobs", func(r chi.Router) {
		r.Get("/{id}", app.JobStatus)
		r.Get("/{id}/download", app.JobDownload)
		r.Get("/{id}/audio", app.JobAudio)
	})

	r.Route("/v1/prompts", func(r chi.Router) {
		r.Post("/build", app.PromptBuilder)
		r.Get("/files", app.PromptFiles)
		r.Get("/files/{name}", app.PromptFile)
	})

	r.Get("/v1/patterns", app.Patterns)
	r.Get("/v1/related", app.Related)
	r.Delete("/v1/results/{fingerprint}", app.InvalidateResult)

	return r
}
