// Package api serves a story library over a read-only HTTP API.
//
//	GET /healthz
//	GET /stories
//	GET /stories/{id}
//	GET /stories/{id}/graph.dot
//	GET /stories/{id}/graph.svg
//	GET /stories/{id}/nodes/{index}
//	GET /stories/{id}/nodes/{index}/{kind}
//
// Story metadata comes from a [catalog.Store]; packages are loaded on first
// use and kept for the lifetime of the server. Asset bytes go through a
// caching resolver.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/storybox/pkg/cache"
	"github.com/matzehuels/storybox/pkg/catalog"
	"github.com/matzehuels/storybox/pkg/loader"
	"github.com/matzehuels/storybox/pkg/story"
)

// Options configures a [Server].
type Options struct {
	Catalog catalog.Store
	Loader  *loader.Loader
	// Cache holds resolved assets and snapshots. Nil disables caching.
	Cache    cache.Cache
	Keyer    cache.Keyer
	CacheTTL time.Duration
	Logger   *log.Logger
}

// Server is the HTTP API. Create it with [New].
type Server struct {
	catalog catalog.Store
	loader  *loader.Loader
	cache   cache.Cache
	keyer   cache.Keyer
	ttl     time.Duration
	logger  *log.Logger
	router  chi.Router

	mu       sync.Mutex
	packages map[string]*story.Package
}

// New builds a server and its routes.
func New(opts Options) *Server {
	s := &Server{
		catalog:  opts.Catalog,
		loader:   opts.Loader,
		cache:    opts.Cache,
		keyer:    opts.Keyer,
		ttl:      opts.CacheTTL,
		logger:   opts.Logger,
		packages: make(map[string]*story.Package),
	}
	if s.loader == nil {
		s.loader = loader.New(loader.Options{Logger: opts.Logger})
	}
	if s.cache == nil {
		s.cache = cache.NewNullCache()
	}
	if s.keyer == nil {
		s.keyer = cache.NewDefaultKeyer()
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/stories", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleStory)
			r.Get("/graph.dot", s.handleGraphDOT)
			r.Get("/graph.svg", s.handleGraphSVG)
			r.Get("/nodes/{index}", s.handleNode)
			r.Get("/nodes/{index}/{kind}", s.handleAsset)
		})
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("serving library", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"took", time.Since(start).Round(time.Microsecond),
			"id", middleware.GetReqID(r.Context()))
	})
}

// pkg returns the loaded package for a catalog id, loading it on first use.
func (s *Server) pkg(ctx context.Context, id string) (*story.Package, error) {
	s.mu.Lock()
	p, ok := s.packages[id]
	s.mu.Unlock()
	if ok {
		return p, nil
	}

	entry, err := s.catalog.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err = s.loader.Load(ctx, entry.Path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.packages[id]; ok {
		return cached, nil
	}
	s.packages[id] = p
	return p, nil
}
