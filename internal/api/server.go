// Package api provides the local HTTP API for nirbhaya
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/lcrostarosa/nirbhaya/internal/alertlog"
	"github.com/lcrostarosa/nirbhaya/internal/contacts"
	"github.com/lcrostarosa/nirbhaya/internal/location"
	"github.com/lcrostarosa/nirbhaya/internal/logging"
	"github.com/lcrostarosa/nirbhaya/internal/middleware"
	"github.com/lcrostarosa/nirbhaya/internal/news"
	"github.com/lcrostarosa/nirbhaya/internal/session"
	"github.com/lcrostarosa/nirbhaya/internal/sos"
	"github.com/lcrostarosa/nirbhaya/internal/toast"
)

// LocationSource returns the current position
type LocationSource interface {
	Current(ctx context.Context) (location.Sample, error)
}

// ArticleSource returns the safety article feed
type ArticleSource interface {
	Articles(ctx context.Context) []news.Article
}

// Deps are the components the handlers call into. Session, Contacts and
// Workflow are required.
type Deps struct {
	Session  *session.Store
	Contacts *contacts.Store
	Workflow *sos.Workflow
	Location LocationSource
	Articles ArticleSource
	Alerts   alertlog.Recorder
	Toasts   *toast.Center
}

// ServerOptions tune the HTTP server
type ServerOptions struct {
	RateLimit *middleware.RateLimitConfig
	Logger    *zap.Logger
}

// Server is the HTTP API server
type Server struct {
	deps       Deps
	httpServer *http.Server
	limiter    *middleware.RateLimiter
	logger     *zap.Logger
	addr       string

	// baseCtx outlives requests so a countdown started over HTTP keeps
	// running after the activate call returns
	baseCtx    context.Context
	cancelBase context.CancelFunc
}

// NewServer creates a new API server
func NewServer(deps Deps, addr string, opts *ServerOptions) (*Server, error) {
	switch {
	case deps.Session == nil:
		return nil, errors.New("api: session store is required")
	case deps.Contacts == nil:
		return nil, errors.New("api: contacts store is required")
	case deps.Workflow == nil:
		return nil, errors.New("api: sos workflow is required")
	}
	if deps.Alerts == nil {
		deps.Alerts = alertlog.Nop{}
	}
	if opts == nil {
		opts = &ServerOptions{}
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		deps:       deps,
		limiter:    middleware.NewRateLimiter(opts.RateLimit, opts.Logger),
		logger:     logging.OrNop(opts.Logger).Named("api"),
		addr:       addr,
		baseCtx:    baseCtx,
		cancelBase: cancel,
	}

	router := mux.NewRouter()
	s.registerRoutes(router)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.withLogging(withCORS(s.limiter.Middleware(router))),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return s, nil
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("Starting nirbhaya API server", zap.String("addr", s.addr))
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server. A running countdown is
// cancelled.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancelBase()
	s.limiter.Stop()
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the server's listen address
func (s *Server) Addr() string {
	return s.addr
}

// Handler returns the server's HTTP handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
