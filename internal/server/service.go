// Package server exposes the solution engine over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/animstudio/solution-engine/internal/config"
	"github.com/animstudio/solution-engine/internal/recommend"
	"github.com/animstudio/solution-engine/internal/repository"
	"github.com/animstudio/solution-engine/internal/version"
)

// DefaultHTTPTimeout bounds request handling time.
const DefaultHTTPTimeout = 30 * time.Second

// Service wires the repository, version manager and recommendation
// engine behind a chi router.
type Service struct {
	version string

	config *config.Config
	cfgMu  sync.RWMutex // guards config.Engine, rewritten on reload

	repo     *repository.Repository
	versions *version.Manager
	engine   *recommend.Engine

	router *chi.Mux
	server *http.Server
}

// NewService creates the HTTP service. All collaborators are injected;
// the service owns none of their lifecycles except the HTTP listener.
func NewService(cfg *config.Config, repo *repository.Repository, versions *version.Manager, engine *recommend.Engine, buildVersion string) *Service {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Service{
		version:  buildVersion,
		config:   cfg,
		repo:     repo,
		versions: versions,
		engine:   engine,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Service) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(DefaultHTTPTimeout))
	s.router.Use(requestLogger)
}

// requestLogger logs each request with method, path, status and latency.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

// setupRoutes configures HTTP routes.
func (s *Service) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/solutions", func(r chi.Router) {
			r.Post("/", s.handleAddSolution)
			r.Get("/", s.handleListSolutions)
			r.Get("/search", s.handleSearch)
			r.Get("/top-rated", s.handleTopRated)
			r.Get("/most-used", s.handleMostUsed)
			r.Get("/category/{category}", s.handleByCategory)
			r.Get("/tier/{tier}", s.handleByTier)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSolution)
				r.Delete("/", s.handleRemoveSolution)
				r.Post("/evaluate", s.handleEvaluate)
				r.Post("/rating", s.handleRate)
				r.Post("/usage", s.handleUsage)
				r.Put("/favorite", s.handleAddFavorite)
				r.Delete("/favorite", s.handleRemoveFavorite)
				r.Get("/similar", s.handleSimilar)

				r.Post("/versions", s.handleCreateVersion)
				r.Get("/versions", s.handleVersionHistory)
				r.Post("/rollback", s.handleRollback)
			})
		})

		r.Get("/favorites", s.handleFavorites)
		r.Get("/stats", s.handleStatistics)
		r.Get("/stats/engine", s.handleEngineStatistics)

		r.Post("/recommendations", s.handleRecommend)
		r.Get("/recommendations/personalized", s.handlePersonalized)
		r.Get("/trending", s.handleTrending)

		r.Post("/events", s.handleTrackEvent)
	})
}

// Start begins serving HTTP. It returns once the listener is running;
// server errors after startup are reported through errCh.
func (s *Service) Start(errCh chan<- error) {
	s.server = &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
			return
		}
		errCh <- nil
	}()

	log.Info().
		Str("addr", s.config.Addr()).
		Str("version", s.version).
		Msg("Solution engine HTTP server started")
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Service) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router exposes the configured router, mainly for tests.
func (s *Service) Router() http.Handler {
	return s.router
}

// ApplyConfig adopts reloadable settings from a freshly loaded config.
// Handlers read the engine section through defaultLimit, so the swap
// happens under the config lock.
func (s *Service) ApplyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	s.engine.SetCacheTTL(cfg.Engine.CacheTTL)
	s.cfgMu.Lock()
	s.config.Engine = cfg.Engine
	s.cfgMu.Unlock()
}

func (s *Service) defaultLimit() int {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.config.Engine.DefaultLimit
}
