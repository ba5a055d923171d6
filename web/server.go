// Package web serves the words → images → presentation form flow and a stateless deck API.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ByLCY/wordslides/config"
	"github.com/ByLCY/wordslides/deck"
	"github.com/ByLCY/wordslides/logging"
	"github.com/ByLCY/wordslides/renderer"
	canvasrenderer "github.com/ByLCY/wordslides/renderer/canvas"
	"github.com/ByLCY/wordslides/renderer/pptx"
	"github.com/ByLCY/wordslides/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server holds the handlers' dependencies.
type Server struct {
	logger    *logging.Logger
	store     session.Store
	cfg       config.ServerConfig
	cookie    string
	cookieTTL time.Duration
	opts      deck.Options
	renderers map[string]renderer.Renderer
	pages     *template.Template
	limiter   *clientLimiter
}

// NewServer wires a server from configuration. The store is owned by the caller.
func NewServer(cfg *config.Config, logger *logging.Logger, store session.Store) (*Server, error) {
	opts, err := cfg.Deck.Options()
	if err != nil {
		return nil, err
	}
	pages, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Server{
		logger:    logger.WithOperation("web"),
		store:     store,
		cfg:       cfg.Server,
		cookie:    cfg.Session.CookieName,
		cookieTTL: cfg.Session.TTL,
		opts:      opts,
		renderers: map[string]renderer.Renderer{
			"pptx": pptx.NewRenderer(),
			"pdf":  canvasrenderer.NewRenderer(),
		},
		pages:   pages,
		limiter: newClientLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst),
	}, nil
}

// Router creates the HTTP router with all routes configured.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	if s.cfg.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(s.cfg.RequestTimeout))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"wordslides"}`))
	})

	r.Group(func(r chi.Router) {
		r.Use(s.limiter.middleware)

		r.Get("/", s.handleIndex)
		r.Post("/", s.handleWords)
		r.Get("/images", s.handleImagesForm)
		r.Post("/upload-images/", s.handleUpload)
		r.Get("/presentation", s.handlePresentation("pptx"))
		r.Get("/presentation.pdf", s.handlePresentation("pdf"))

		r.Route("/api/v1", func(r chi.Router) {
			r.Post("/decks", s.handleCreateDeck)
		})
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		s.logger.Info().Msg("Shutting down HTTP server")
		grace := s.cfg.GracefulShutdown
		if grace <= 0 {
			grace = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	}
}

// requestLogger 记录每个请求并把 chi 的 request id 放入日志上下文。
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := logging.ContextWithRequestID(r.Context(), chimiddleware.GetReqID(r.Context()))
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		s.logger.WithContext(ctx).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
