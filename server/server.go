// Package server is the HTTP surface: an upload page, form posts that run the
// pipeline, the stored files, and a small JSON API over the same operations.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	cfg "github.com/maastricht-university/speech-sentiment/config"
	"github.com/maastricht-university/speech-sentiment/orchestrator"
)

type Processor interface {
	ProcessAudioUpload(ctx context.Context, raw []byte, suggestedName string) (*orchestrator.ArtifactRef, error)
	ProcessTextSubmission(ctx context.Context, text string) (*orchestrator.ArtifactRef, error)
}

type Artifacts interface {
	List() ([]string, error)
	ReadResultText(id string) (string, error)
	Open(name string) (string, error)
}

type Server struct {
	cfg       cfg.Server
	processor Processor
	artifacts Artifacts
	log       logrus.FieldLogger
}

func New(c cfg.Server, p Processor, a Artifacts, log logrus.FieldLogger) *Server {
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 32 << 20
	}
	return &Server{cfg: c, processor: p, artifacts: a, log: log}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RealIP,
		s.requestLogger,
		middleware.Recoverer,
	)
	if len(s.cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))
	}

	r.Get("/", s.index)
	r.Get("/uploads/{filename}", s.serveFile)
	r.Get("/api/artifacts", s.listArtifacts)

	r.Group(func(pr chi.Router) {
		if s.cfg.RateLimitPerMinute > 0 {
			pr.Use(httprate.LimitByIP(s.cfg.RateLimitPerMinute, time.Minute))
		}
		pr.Post("/upload", s.uploadAudioForm)
		pr.Post("/upload_text", s.uploadTextForm)
		pr.Post("/api/audio", s.uploadAudioJSON)
		pr.Post("/api/text", s.uploadTextJSON)
	})
	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.cfg.Addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(middleware.RequestIDHeader, id)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		s.log.WithFields(logrus.Fields{
			"request_id": id,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start),
		}).Info("request")
	})
}
