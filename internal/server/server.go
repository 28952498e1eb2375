// Package server is the HTTP preview of the registry: every registered form
// is rendered to HTML, and submissions run through the form engine into the
// configured store.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	theme "github.com/goliatone/go-theme"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/goliatone/go-formengine/internal/media"
	"github.com/goliatone/go-formengine/internal/store"
	"github.com/goliatone/go-formengine/pkg/registry"
	"github.com/goliatone/go-formengine/pkg/renderers/html"
)

// DefaultBodyLimit caps request bodies, uploads included.
const DefaultBodyLimit = "10M"

// Server wires the registry, a store and the HTML renderer behind echo.
type Server struct {
	echo      *echo.Echo
	registry  *registry.Registry
	store     store.Store
	uploader  *media.Uploader
	themes    theme.ThemeSelector
	htmlOpts  []html.Option
	bodyLimit string
	logger    *zap.Logger

	mu        sync.Mutex
	renderers map[string]*html.Renderer
}

// Option configures a Server.
type Option func(*Server)

// WithStore persists submissions in st. Defaults to an in-memory store.
func WithStore(st store.Store) Option {
	return func(s *Server) {
		if st != nil {
			s.store = st
		}
	}
}

// WithUploader moves inline images and files to object storage before they
// are saved.
func WithUploader(u *media.Uploader) Option {
	return func(s *Server) {
		s.uploader = u
	}
}

// WithThemes lets requests pick a theme with ?theme= and ?variant=.
func WithThemes(selector theme.ThemeSelector) Option {
	return func(s *Server) {
		s.themes = selector
	}
}

// WithRendererOptions are applied to every HTML renderer the server builds.
func WithRendererOptions(opts ...html.Option) Option {
	return func(s *Server) {
		s.htmlOpts = append(s.htmlOpts, opts...)
	}
}

// WithBodyLimit overrides DefaultBodyLimit ("2M", "512K").
func WithBodyLimit(limit string) Option {
	return func(s *Server) {
		if limit != "" {
			s.bodyLimit = limit
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds the server and registers its routes.
func New(reg *registry.Registry, opts ...Option) *Server {
	s := &Server{
		registry:  reg,
		store:     store.NewMemory(),
		bodyLimit: DefaultBodyLimit,
		logger:    zap.NewNop(),
		renderers: make(map[string]*html.Renderer),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Browser forms can only POST; _method carries the real verb. The limit
	// runs first because reading _method parses the body.
	e.Pre(middleware.BodyLimit(s.bodyLimit))
	e.Pre(middleware.MethodOverrideWithConfig(middleware.MethodOverrideConfig{
		Getter: middleware.MethodFromForm("_method"),
	}))
	e.Use(RequestID())
	e.Use(Logger(s.logger))
	e.Use(Recovery(s.logger))

	s.echo = e
	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.GET("/healthz", s.health)
	s.echo.GET("/forms", s.listForms)

	forms := s.echo.Group("/forms/:module/:form")
	forms.GET("", s.newForm)
	forms.POST("", s.create)
	forms.GET("/records", s.listRecords)
	forms.GET("/:id", s.showRecord)
	forms.POST("/:id", s.update)
	forms.DELETE("/:id", s.remove)
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests
// for at most shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", zap.String("addr", addr))
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// renderer returns the HTML renderer for the requested theme, building and
// caching it on first use.
func (s *Server) renderer(c echo.Context) (*html.Renderer, error) {
	if s.themes == nil {
		return s.cachedRenderer("", nil), nil
	}
	cfg, err := html.SelectTheme(s.themes, c.QueryParam("theme"), c.QueryParam("variant"))
	if err != nil {
		if errors.Is(err, html.ErrUnknownTheme) {
			return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return nil, err
	}
	key := ""
	if cfg != nil {
		key = cfg.Theme + "/" + cfg.Variant
	}
	return s.cachedRenderer(key, cfg), nil
}

func (s *Server) cachedRenderer(key string, cfg *theme.RendererConfig) *html.Renderer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.renderers[key]; ok {
		return r
	}
	opts := append([]html.Option{html.WithLogger(s.logger)}, s.htmlOpts...)
	if cfg != nil {
		opts = append(opts, html.WithTheme(cfg))
	}
	r := html.New(opts...)
	s.renderers[key] = r
	return r
}
