package chat

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tevino/abool"
)

const (
	DefaultIdleTimeout  = 60 * time.Second
	DefaultReapInterval = 5 * time.Second
)

// Config carries the server tunables. Zero values fall back to defaults;
// an empty HTTPAddr disables the ops listener entirely.
type Config struct {
	Addr         string // chat listen address
	HTTPAddr     string // metrics + websocket listen address, "" to disable
	IdleTimeout  time.Duration
	ReapInterval time.Duration
	Logger       *slog.Logger
}

type Server struct {
	cfg      Config
	logger   *slog.Logger
	reg      *Registry
	reaper   *Reaper
	listener net.Listener
	httpSrv  *http.Server
	quitting *abool.AtomicBool
}

func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.ReapInterval <= 0 {
		cfg.ReapInterval = DefaultReapInterval
	}

	reg := NewRegistry(cfg.Logger)
	return &Server{
		cfg:      cfg,
		logger:   cfg.Logger,
		reg:      reg,
		reaper:   NewReaper(reg, cfg.ReapInterval, cfg.IdleTimeout, cfg.Logger),
		quitting: abool.New(),
	}
}

// Registry exposes the session directory, mainly for tests.
func (s *Server) Registry() *Registry {
	return s.reg
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.listener = ln

	go s.reaper.Run()
	go s.acceptLoop(ln)

	if s.cfg.HTTPAddr != "" {
		s.startHTTP()
	}

	s.logger.Info("server started", "addr", ln.Addr().String())
	return nil
}

// Addr returns the address the chat listener is bound to.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

func (s *Server) Stop() {
	if !s.quitting.SetToIf(false, true) {
		return
	}
	s.logger.Info("shutting down")

	if s.listener != nil {
		s.listener.Close()
	}
	if s.httpSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(ctx)
	}

	s.reaper.Stop()
	s.reaper.Wait()

	// Tear down whatever sessions are still registered.
	for _, name := range s.reg.Snapshot() {
		if sess, ok := s.reg.Unregister(name); ok {
			sess.Close()
		}
	}

	s.logger.Info("shutdown complete")
}

func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if !s.quitting.IsSet() {
				s.logger.Error("accept failed", "error", err)
			}
			return
		}

		s.logger.Info("client connected", "addr", conn.RemoteAddr().String())
		go HandleSession(NewSession(conn), s.reg)
	}
}

// startHTTP serves the ops surface: Prometheus metrics and the WebSocket
// bridge onto the same line protocol.
func (s *Server) startHTTP() {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/ws", s.serveWS)

	s.httpSrv = &http.Server{Addr: s.cfg.HTTPAddr, Handler: r}
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("ops listener failed", "error", err)
		}
	}()
}
