// Package httpserver wires the API and admin HTTP servers.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/revlogica/orchestrator/internal/config"
	"github.com/revlogica/orchestrator/internal/server/handlers"
)

// Options carries the handler dependencies injected by the daemon.
type Options struct {
	Manuscripts *handlers.ManuscriptHandlers
	NLP         *handlers.NLPHandlers
	Monitoring  *handlers.MonitoringHandlers
	Admin       *handlers.AdminHandlers

	// MetricsHandler serves the Prometheus exposition endpoint.
	MetricsHandler http.Handler

	// Chain wraps every handler with the middleware stack.
	Chain func(http.Handler) http.Handler
}

// Server manages the API server (document operations) and the admin server
// (health, status, audit, archive, metrics).
type Server struct {
	apiServer   *http.Server
	adminServer *http.Server
	cfg         *config.Config
	opts        Options
}

// New constructs a new HTTP server wiring instance.
func New(cfg *config.Config, opts Options) *Server {
	if opts.Chain == nil {
		opts.Chain = func(next http.Handler) http.Handler { return next }
	}
	return &Server{cfg: cfg, opts: opts}
}

// Start binds both ports and launches the servers. All ports are pre-bound so
// startup fails fast with an aggregate error instead of partially coming up.
func (s *Server) Start(ctx context.Context) error {
	type preBind struct {
		name string
		port int
		ln   net.Listener
	}
	binds := []preBind{
		{name: "api", port: s.cfg.Server.Port},
		{name: "admin", port: s.cfg.Server.AdminPort},
	}

	var bindErrs []error
	lc := net.ListenConfig{}
	for i := range binds {
		addr := fmt.Sprintf(":%d", binds[i].port)
		ln, err := lc.Listen(ctx, "tcp", addr)
		if err != nil {
			bindErrs = append(bindErrs, fmt.Errorf("%s port %d: %w", binds[i].name, binds[i].port, err))
			continue
		}
		binds[i].ln = ln
	}
	if len(bindErrs) > 0 {
		for _, b := range binds {
			if b.ln != nil {
				_ = b.ln.Close()
			}
		}
		return fmt.Errorf("http startup failed: %w", errors.Join(bindErrs...))
	}

	s.apiServer = &http.Server{
		Handler:      s.opts.Chain(s.apiMux()),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}
	s.adminServer = &http.Server{
		Handler:      s.opts.Chain(s.adminMux()),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	s.startServerWithListener("api", s.apiServer, binds[0].ln)
	s.startServerWithListener("admin", s.adminServer, binds[1].ln)

	slog.Info("HTTP servers started",
		slog.Int("api_port", s.cfg.Server.Port),
		slog.Int("admin_port", s.cfg.Server.AdminPort))
	return nil
}

// Stop gracefully shuts down both servers, admin first.
func (s *Server) Stop(ctx context.Context) error {
	var errs []error

	if s.adminServer != nil {
		if err := s.adminServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("admin server shutdown: %w", err))
		}
	}
	if s.apiServer != nil {
		if err := s.apiServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("api server shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	slog.Info("HTTP servers stopped")
	return nil
}

// startServerWithListener launches an http.Server on a pre-bound listener.
func (s *Server) startServerWithListener(kind string, srv *http.Server, ln net.Listener) {
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error(fmt.Sprintf("%s server error", kind), "error", err)
		}
	}()
}

// apiMux registers the public document management routes.
func (s *Server) apiMux() *http.ServeMux {
	mux := http.NewServeMux()
	m := s.opts.Manuscripts

	mux.HandleFunc("GET /{$}", m.HandleRoot)
	mux.HandleFunc("POST /manuscripts/documents/upload", m.HandleUpload)
	mux.HandleFunc("POST /manuscripts/documents/{$}", m.HandleCreate)
	mux.HandleFunc("GET /manuscripts/documents/list/{collection}", m.HandleList)
	mux.HandleFunc("GET /manuscripts/documents/{collection}/{document_name}", m.HandleGet)
	mux.HandleFunc("PUT /manuscripts/documents/{collection}/{document_name}", m.HandleUpdate)
	mux.HandleFunc("DELETE /manuscripts/documents/{collection}/{document_name}", m.HandleDelete)

	if s.opts.NLP != nil {
		mux.HandleFunc("POST /manuscripts/documents/{collection}/{document_name}/entities",
			s.opts.NLP.HandleExtractEntities)
	}
	return mux
}

// adminMux registers the operational routes.
func (s *Server) adminMux() *http.ServeMux {
	mux := http.NewServeMux()
	mon := s.opts.Monitoring
	admin := s.opts.Admin

	mux.HandleFunc("GET /healthz", mon.HandleLiveness)
	mux.HandleFunc("GET /health", mon.HandleHealthCheck)
	mux.HandleFunc("GET /ready", mon.HandleReadiness)
	mux.HandleFunc("GET /api/daemon/status", mon.HandleStatus)
	mux.HandleFunc("GET /api/daemon/config", mon.HandleConfig)
	mux.HandleFunc("GET /api/audit/recent", admin.HandleAuditRecent)
	mux.HandleFunc("POST /api/archive/trigger", admin.HandleArchiveTrigger)

	if s.opts.MetricsHandler != nil {
		mux.Handle("GET /metrics", s.opts.MetricsHandler)
	}
	return mux
}
