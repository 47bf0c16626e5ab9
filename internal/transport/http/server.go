// Package http exposes the defect lifecycle over a JSON API. The actor
// performing a request is taken from the X-Actor-* headers; real
// authentication sits in front of this service.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"faultline/internal/bootstrap/logging"
	"faultline/internal/errs"
)

type Server struct {
	addr   string
	server *http.Server
}

func NewServer(addr string, handler *Handler) *Server {
	return &Server{
		addr: addr,
		server: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(handler),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func NewRouter(handler *Handler) chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.Route("/api", func(api chi.Router) {
		api.Route("/defects", func(r chi.Router) {
			r.Get("/", handler.queryDefects)
			r.Post("/", handler.createDefect)
			r.Get("/summary", handler.summary)
			r.Get("/resolve", handler.resolveDefect)
			r.Get("/code/{code}", handler.getDefectByCode)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", handler.getDefect)
				r.Get("/status", handler.defectStatus)
				r.Patch("/", handler.updateDefect)
				r.Delete("/", handler.deleteDefect)
				r.Post("/comments", handler.addComment)
				r.Post("/close", handler.closeDefect)
				r.Post("/reopen", handler.reopenDefect)
			})
		})

		api.Get("/settings", handler.getSettings)
		api.Put("/settings", handler.updateSettings)

		api.Post("/sync/flush", handler.flushOutbox)
		api.Get("/sync/status", handler.syncStatus)
	})

	return router
}

func (s *Server) Start(ctx context.Context) error {
	logging.Info(ctx, "http server listening", slog.String("addr", s.addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errs.Wrap(err, "serve http")
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
