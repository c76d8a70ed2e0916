// Package server exposes the HTTP API: synchronous deck generation and
// asynchronous video composition backed by the job pool.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/DrPeryCox/pres-gen-new/pkg/config"
	"github.com/DrPeryCox/pres-gen-new/pkg/deck"
	"github.com/DrPeryCox/pres-gen-new/pkg/jobs"
	"github.com/DrPeryCox/pres-gen-new/pkg/logger"
)

// Server ties the HTTP routes to the deck generator and the job machinery.
type Server struct {
	addr       string
	uploadsDir string
	store      *jobs.Store
	pool       *jobs.Pool
	generator  *deck.Generator
	router     *mux.Router
}

func New(cfg *config.Config, store *jobs.Store, pool *jobs.Pool) *Server {
	s := &Server{
		addr:       cfg.ListenAddr,
		uploadsDir: cfg.UploadsDir,
		store:      store,
		pool:       pool,
		generator:  deck.NewGenerator(),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(logRequests)

	r.HandleFunc("/generate-presentation", s.handleGeneratePresentation).Methods(http.MethodPost)
	r.HandleFunc("/generate-video", s.handleGenerateVideo).Methods(http.MethodPost)
	r.HandleFunc("/video-status/{id}", s.handleVideoStatus).Methods(http.MethodGet)
	r.HandleFunc("/download-video/{id}", s.handleDownloadVideo).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	return r
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve runs the HTTP server until ctx is canceled, then shuts down
// gracefully so in-flight downloads can finish.
func (s *Server) Serve(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.addr,
		Handler: s.router,
		// No WriteTimeout: video downloads can legitimately take minutes.
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- httpServer.ListenAndServe()
	}()
	logger.Infof("listening on %s", s.addr)

	select {
	case <-ctx.Done():
		logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-serveDone:
		if err != nil && err != http.ErrServerClosed {
			logger.Errorf("HTTP server stopped with error: %v", err)
			return err
		}
		return nil
	}
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debugf("%s %s (%s)", r.Method, r.URL.Path, time.Since(start))
	})
}
