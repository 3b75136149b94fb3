// Package staticserver serves the landing page directory for checks and
// boots or reuses the configured web server before a run.
package staticserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/kuitang/landingcheck/internal/obs"
	"github.com/kuitang/landingcheck/internal/ratelimit"
	"golang.org/x/sync/errgroup"
)

// HealthPath answers 200 once the server is accepting requests.
const HealthPath = "/__health"

// Options configures an in-process static server.
type Options struct {
	SiteDir   string
	Addr      string
	RateLimit ratelimit.Config
}

// Server is a no-cache static file server over SiteDir.
type Server struct {
	opts       Options
	limiter    *ratelimit.RateLimiter
	httpServer *http.Server
	listener   net.Listener
}

// New builds the server. Nothing listens until Start or Serve.
func New(opts Options) *Server {
	if opts.SiteDir == "" {
		opts.SiteDir = "."
	}
	if opts.RateLimit.RPS <= 0 || opts.RateLimit.Burst <= 0 {
		opts.RateLimit = ratelimit.DefaultConfig
	}
	s := &Server{
		opts:    opts,
		limiter: ratelimit.NewRateLimiter(opts.RateLimit),
	}
	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the full middleware chain around the file server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+HealthPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/", noStore(http.FileServer(http.Dir(s.opts.SiteDir))))

	var h http.Handler = mux
	h = ratelimit.Middleware(s.limiter, ratelimit.ClientHost)(h)
	h = obs.AccessLogMiddleware("staticserver", h)
	h = obs.RequestContextMiddleware(h)
	return h
}

// noStore disables caching so every check sees the files on disk.
func noStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listen(ctx context.Context) (net.Listener, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		return nil, err
	}
	s.listener = ln
	obs.Pkg("staticserver").Info("static_server_started", "addr", ln.Addr().String(), "site_dir", s.opts.SiteDir)
	return ln, nil
}

func (s *Server) serve(ln net.Listener) error {
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Start listens on Options.Addr (":0" picks a free port) and serves in the
// background. It returns the bound address.
func (s *Server) Start(ctx context.Context) (string, error) {
	ln, err := s.listen(ctx)
	if err != nil {
		return "", err
	}
	go func() {
		if err := s.serve(ln); err != nil {
			obs.Pkg("staticserver").Error("static_server_failed", "error", err)
		}
	}()
	return ln.Addr().String(), nil
}

// Shutdown gracefully stops the server and its limiter cleanup loop.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.limiter.Stop()
	return s.httpServer.Shutdown(ctx)
}

// Serve blocks until ctx is cancelled or the listener fails.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := s.listen(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.serve(ln)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		obs.Pkg("staticserver").Info("static_server_stopping", "addr", ln.Addr().String())
		return s.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
