package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (c controller) GetMux() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(c.requestIdMw)
	r.Use(c.requestLoggingMw)
	r.Use(c.corsMw())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		r.Get("/resolve", c.resolve)
		r.Get("/videos/{video-id}", c.getVideo)
		r.Get("/tracks", c.listTracks)
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", c.createSession)
			r.Route("/{session-id}", func(r chi.Router) {
				r.Get("/", c.getSession)
				r.Get("/mashups", c.getMashups)
				r.Get("/waveform.png", c.getWaveform)
			})
		})
		r.Route("/ws", func(r chi.Router) {
			r.Get("/sessions/{session-id}", c.connect)
		})
	})

	return r
}

func (c controller) corsMw() func(http.Handler) http.Handler {
	if len(c.allowedOrigins) == 0 {
		return cors.AllowAll().Handler
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: c.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", headerPrefix + "Auth-Token"},
		MaxAge:         300,
	})
}
