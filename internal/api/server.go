package api

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/ignite/voucher-console/internal/config"
	"github.com/ignite/voucher-console/internal/pkg/logger"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

const (
	defaultReadTimeout  = 30 * time.Second
	defaultWriteTimeout = 60 * time.Second
)

// Server serves the voucher API over HTTP/1.1 and cleartext HTTP/2.
type Server struct {
	handler http.Handler
	server  *http.Server
}

// NewServer builds the router and the underlying http.Server.
func NewServer(cfg config.ServerConfig, h *Handlers) *Server {
	read, write := cfg.ReadTimeout, cfg.WriteTimeout
	if read <= 0 {
		read = defaultReadTimeout
	}
	if write <= 0 {
		write = defaultWriteTimeout
	}
	handler := NewRouter(h, cfg.AllowedOrigins)
	return &Server{
		handler: handler,
		server: &http.Server{
			Handler:           h2c.NewHandler(handler, &http2.Server{}),
			ReadTimeout:       read,
			ReadHeaderTimeout: 15 * time.Second,
			WriteTimeout:      write,
			IdleTimeout:       120 * time.Second,
		},
	}
}

// ListenAndServe listens on addr and serves until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	logger.Info("[api] listening", "addr", ln.Addr().String())
	return s.server.Serve(ln)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the router without the h2c wrapper.
func (s *Server) Handler() http.Handler {
	return s.handler
}
