package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pactnotify/internal/config"
	logx "pactnotify/pkg/logx"
)

// HealthFunc reports component health for /healthz. A nil error is healthy.
type HealthFunc func() map[string]error

// Server manages the metrics/health listener lifecycle.
type Server struct {
	col    *Collector
	health HealthFunc
	log    logx.Logger

	mu    sync.Mutex
	srv   *http.Server
	ln    net.Listener
	addr  string
	pprof bool
}

func NewServer(col *Collector, health HealthFunc, log logx.Logger) *Server {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Server{col: col, health: health, log: log.With(logx.String("comp", "metrics"))}
}

// Apply starts, restarts or stops the listener to match cfg.
func (s *Server) Apply(ctx context.Context, cfg config.MetricsConfig) error {
	if cfg.Addr == "" {
		cfg.Addr = config.DefaultMetricsAddr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !cfg.Enabled {
		s.stopLocked(ctx)
		return nil
	}
	if s.srv != nil && s.addr == cfg.Addr && s.pprof == cfg.Pprof {
		return nil
	}
	s.stopLocked(ctx)
	return s.startLocked(cfg)
}

func (s *Server) startLocked(cfg config.MetricsConfig) error {
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		s.log.Warn("metrics listen failed", logx.String("addr", cfg.Addr), logx.Err(err))
		return err
	}

	srv := &http.Server{
		Handler:           s.handler(cfg.Pprof),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.srv, s.ln, s.addr, s.pprof = srv, ln, ln.Addr().String(), cfg.Pprof

	addr := s.addr
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Warn("metrics server error", logx.String("addr", addr), logx.Err(err))
		}
	}()
	s.log.Info("metrics enabled", logx.String("addr", addr), logx.Bool("pprof", cfg.Pprof))
	return nil
}

func (s *Server) handler(withPprof bool) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.col.Registry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", s.serveHealth)
	if withPprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	return mux
}

func (s *Server) serveHealth(w http.ResponseWriter, _ *http.Request) {
	status := map[string]string{}
	code := http.StatusOK
	if s.health != nil {
		for name, err := range s.health() {
			if err != nil {
				status[name] = err.Error()
				code = http.StatusServiceUnavailable
				continue
			}
			status[name] = "ok"
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": code == http.StatusOK, "components": status})
}

func (s *Server) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked(ctx)
}

func (s *Server) stopLocked(ctx context.Context) {
	if s.srv == nil {
		return
	}
	srv, ln, addr := s.srv, s.ln, s.addr
	s.srv, s.ln, s.addr = nil, nil, ""

	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
	}
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.Warn("metrics shutdown error", logx.String("addr", addr), logx.Err(err))
	}
	_ = ln.Close()
	s.log.Info("metrics disabled", logx.String("addr", addr))
}

// Addr reports the actual listen address, or "" when stopped.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}
