package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	errs "github.com/matzehuels/tagresolver/pkg/errors"
	"github.com/matzehuels/tagresolver/pkg/resolve"
)

// ReleaseTagPath is the route pattern of the resolution endpoint.
const ReleaseTagPath = "/gh/v1/releases/tag/{owner}/{repo}/{version}"

// Defaults applied by [New] for zero Config fields.
const (
	DefaultAddr            = ":8080"
	DefaultRequestTimeout  = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// Resolver answers resolution requests. [resolve.Service] implements it.
type Resolver interface {
	Handle(ctx context.Context, owner, repo, spec string) (string, error)
}

// Config configures a [Server].
type Config struct {
	Addr            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	// Metrics, when set, is mounted at /metrics.
	Metrics http.Handler

	Logger *log.Logger
}

// Server exposes a [Resolver] over HTTP.
type Server struct {
	cfg      Config
	resolver Resolver
	logger   *log.Logger
	router   chi.Router
}

// New builds a Server and its routes.
func New(r Resolver, cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{cfg: cfg, resolver: r, logger: logger}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID(s.logger))
	r.Use(accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.cfg.Metrics)
	}
	r.With(deadline(s.cfg.RequestTimeout)).Get(ReleaseTagPath, s.handleReleaseTag)
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "listen on %s", s.cfg.Addr)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled. In-flight requests
// get ShutdownTimeout to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "timeout", s.cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "ok")
}

func (s *Server) handleReleaseTag(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	repo := chi.URLParam(r, "repo")
	spec := chi.URLParam(r, "version")

	tag, err := s.resolver.Handle(r.Context(), owner, repo, spec)
	status := resolve.StatusOf(err)
	if err != nil {
		logger := requestLogger(r.Context(), s.logger)
		if status == resolve.StatusUpstreamError || status == resolve.StatusTimeout {
			logger.Error("resolution failed", "owner", owner, "repo", repo, "spec", spec, "err", err)
		} else {
			logger.Debug("resolution rejected", "owner", owner, "repo", repo, "spec", spec, "status", status)
		}
		writeText(w, httpStatus(status), errs.UserMessage(err))
		return
	}
	writeText(w, http.StatusOK, tag)
}

// httpStatus maps a resolution outcome to its HTTP status code.
func httpStatus(s resolve.Status) int {
	switch s {
	case resolve.StatusOK:
		return http.StatusOK
	case resolve.StatusNotFound:
		return http.StatusNotFound
	case resolve.StatusForbidden:
		return http.StatusForbidden
	case resolve.StatusTimeout:
		return http.StatusGatewayTimeout
	case resolve.StatusInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func writeText(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(body))
}
