// Package server bridges an editor to the outline over JSON-RPC 2.0, on
// stdio or a websocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/gorilla/websocket"
	"github.com/sourcegraph/jsonrpc2"
	jsonrpc2ws "github.com/sourcegraph/jsonrpc2/websocket"

	"github.com/oakwood-commons/stixoutline/internal/config"
	"github.com/oakwood-commons/stixoutline/internal/icons"
)

// Server accepts editor connections. Every connection gets its own
// workspace, projector and configuration store.
type Server struct {
	cfg     config.Config
	log     logr.Logger
	icons   *icons.Resolver
	name    string
	version string

	upgrader websocket.Upgrader
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithIcons sets the icon resolver shared by all connections.
func WithIcons(r *icons.Resolver) Option {
	return func(s *Server) { s.icons = r }
}

// WithVersion sets the version reported by initialize.
func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

// New returns a server starting every connection from cfg.
func New(cfg config.Config, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		log:     logr.Discard(),
		name:    cfg.App.About.Name,
		version: "dev",
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ServeStream serves one connection until the peer disconnects or ctx is
// done.
func (s *Server) ServeStream(ctx context.Context, stream jsonrpc2.ObjectStream) error {
	sess, err := newSession(ctx, s)
	if err != nil {
		_ = stream.Close()
		return err
	}
	conn := sess.connect(ctx, stream)
	defer sess.close()
	select {
	case <-conn.DisconnectNotify():
	case <-ctx.Done():
		_ = conn.Close()
		<-conn.DisconnectNotify()
	}
	sess.wait()
	return nil
}

// ServeStdio serves a single connection framed with Content-Length
// headers, as language servers are.
func (s *Server) ServeStdio(ctx context.Context, in io.ReadCloser, out io.WriteCloser) error {
	stream := jsonrpc2.NewBufferedStream(stdio{in: in, out: out}, jsonrpc2.VSCodeObjectCodec{})
	return s.ServeStream(ctx, stream)
}

// ServeHTTP upgrades the request to a websocket and serves it.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error(err, "websocket upgrade failed", "remote", r.RemoteAddr)
		return
	}
	s.log.V(1).Info("websocket connected", "remote", r.RemoteAddr)
	if err := s.ServeStream(r.Context(), jsonrpc2ws.NewObjectStream(c)); err != nil {
		s.log.Error(err, "websocket session failed", "remote", r.RemoteAddr)
	}
}

// ListenAndServe accepts websocket connections on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts websocket connections on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.log.Info("serving websocket", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

type stdio struct {
	in  io.ReadCloser
	out io.WriteCloser
}

func (s stdio) Read(p []byte) (int, error)  { return s.in.Read(p) }
func (s stdio) Write(p []byte) (int, error) { return s.out.Write(p) }
func (s stdio) Close() error {
	return errors.Join(s.in.Close(), s.out.Close())
}
