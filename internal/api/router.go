package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/subtitle-kit/subkit/internal/api/middleware"
)

// NewRouter builds the HTTP surface: the form UI at / and the job API
// under /api.
func (s *Server) NewRouter() *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(middleware.CORSHandler(s.cfg.CORSOrigins)))

	r.Get("/", s.Index)

	r.Route("/api", func(r chi.Router) {
		// Upload routes cap their own body size with larger limits
		r.Post("/transcribe", s.SubmitTranscribe)
		r.Post("/burn", s.SubmitBurn)
		r.Post("/translate", s.SubmitTranslate)

		r.Group(func(r chi.Router) {
			r.Use(middleware.MaxBodySize(1 << 20))

			r.Get("/jobs", s.ListJobs)
			r.Get("/jobs/{id}", s.GetJob)
			r.Delete("/jobs/{id}", s.CancelJob)
			r.Get("/jobs/{id}/download", s.DownloadResult)
		})
	})

	return r
}
