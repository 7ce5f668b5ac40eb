package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/outreach/pkg/health"
	"github.com/dmitrymomot/outreach/pkg/logger"
)

// Default server timeouts. WriteTimeout is left to the caller: a campaign
// send is paced and can outlive any fixed limit.
const (
	defaultReadTimeout       = 15 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20
	defaultShutdownTimeout   = 30 * time.Second
	defaultHealthTimeout     = 5 * time.Second
)

// Default health check paths.
const (
	defaultLivenessPath  = "/health/live"
	defaultReadinessPath = "/health/ready"
)

// RequestIDKey is the context key the request ID is stored under.
type RequestIDKey struct{}

// RequestID returns the request ID stored in c, if any.
func RequestID(c Context) string {
	return ContextValue[string](c, RequestIDKey{})
}

// Server owns the HTTP routing, middleware and error rendering.
// It is immutable after New.
type Server struct {
	router       chi.Router
	errorHandler ErrorHandler
	logger       *slog.Logger
	checks       health.Checks
	middlewares  []Middleware
	handlers     []Handler
	mounts       []mount
	writeTimeout time.Duration
}

type mount struct {
	handler http.Handler
	pattern string
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMiddleware appends global middleware, applied in order.
func WithMiddleware(mw ...Middleware) Option {
	return func(s *Server) {
		s.middlewares = append(s.middlewares, mw...)
	}
}

// WithHandlers registers route handlers.
func WithHandlers(h ...Handler) Option {
	return func(s *Server) {
		s.handlers = append(s.handlers, h...)
	}
}

// WithErrorHandler replaces DefaultErrorHandler.
func WithErrorHandler(h ErrorHandler) Option {
	return func(s *Server) {
		s.errorHandler = h
	}
}

// WithReadinessCheck adds a named readiness check.
//
// Example:
//
//	server.WithReadinessCheck("db", db.Healthcheck(pool))
func WithReadinessCheck(name string, fn health.CheckFunc) Option {
	return func(s *Server) {
		if s.checks == nil {
			s.checks = make(health.Checks)
		}
		s.checks[name] = fn
	}
}

// WithMount attaches a plain http.Handler, e.g. the metrics endpoint.
// Mounted handlers bypass global middleware.
func WithMount(pattern string, h http.Handler) Option {
	return func(s *Server) {
		s.mounts = append(s.mounts, mount{pattern: pattern, handler: h})
	}
}

// WithWriteTimeout bounds response writes. Zero disables the limit.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.writeTimeout = d
	}
}

// New creates a Server.
func New(opts ...Option) *Server {
	s := &Server{
		router: chi.NewRouter(),
		logger: logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.errorHandler == nil {
		s.errorHandler = DefaultErrorHandler
	}
	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	s.router.NotFound(s.wrapHandler(func(Context) error {
		return ErrNotFound("route not found", WithErrorCode("not_found"))
	}))
	s.router.MethodNotAllowed(s.wrapHandler(func(Context) error {
		return NewHTTPError(http.StatusMethodNotAllowed, "method not allowed", WithErrorCode("method_not_allowed"))
	}))

	// Ops endpoints sit outside the middleware chain.
	s.router.Group(func(r chi.Router) {
		r.Get(defaultLivenessPath, health.Liveness())
		r.Get(defaultReadinessPath, health.Readiness(s.checks, defaultHealthTimeout, s.logger))
		for _, m := range s.mounts {
			r.Mount(m.pattern, m.handler)
		}
	})

	s.router.Group(func(r chi.Router) {
		for _, mw := range s.middlewares {
			r.Use(s.adaptMiddleware(mw))
		}
		ra := &routerAdapter{router: r, srv: s}
		for _, h := range s.handlers {
			h.Routes(ra)
		}
	})
}

func (s *Server) wrapHandler(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := newContext(w, r, s.logger)
		if err := h(c); err != nil {
			s.handleError(c, err)
		}
	}
}

func (s *Server) handleError(c Context, err error) {
	if c.Written() {
		s.logger.WarnContext(c, "error after response started", slog.String("error", err.Error()))
		return
	}
	if herr := s.errorHandler(c, err); herr != nil {
		s.logger.ErrorContext(c, "error handler failed", slog.String("error", herr.Error()))
	}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Fields    map[string]string `json:"fields,omitempty"`
	Error     string            `json:"error"`
	Code      string            `json:"code,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// DefaultErrorHandler renders err as JSON. Errors that are not an
// HTTPError become an opaque 500 and are logged with their cause.
func DefaultErrorHandler(c Context, err error) error {
	he := AsHTTPError(err)
	if he == nil {
		he = ErrInternal("internal server error", WithErrorCode("internal"), WithError(err))
	}
	if he.RequestID == "" {
		he.RequestID = RequestID(c)
	}

	if he.Code >= http.StatusInternalServerError {
		cause := err
		if he.Err != nil {
			cause = he.Err
		}
		c.LogError("request failed",
			slog.Int("status", he.Code),
			slog.String("path", c.Request().URL.Path),
			slog.String("error", cause.Error()))
	}

	return c.JSON(he.Code, errorBody{
		Error:     he.Message,
		Code:      he.ErrorCode,
		RequestID: he.RequestID,
		Fields:    he.Fields,
	})
}
