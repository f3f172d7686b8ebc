package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/EPecherkin/ai-rm/deps"
	"github.com/EPecherkin/ai-rm/logger"
	"github.com/pkg/errors"
)

const SHUTDOWN_TIMEOUT = 5 * time.Second

// Server runs an http.Handler until its context is cancelled.
type Server struct {
	addr       string
	httpServer *http.Server

	deps deps.Deps
}

func NewServer(addr string, handler http.Handler, deps deps.Deps) *Server {
	deps.Logger = deps.Logger.With(logger.CALLER, "server")
	deps.Logger.Debug("Creating server")
	return &Server{
		addr:       addr,
		httpServer: &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second},
		deps:       deps,
	}
}

func (server *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", server.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", server.addr, errors.WithStack(err))
	}
	return server.Serve(ctx, ln)
}

// Serve accepts on ln and shuts down gracefully when ctx is done.
func (server *Server) Serve(ctx context.Context, ln net.Listener) error {
	server.deps.Logger.With("addr", ln.Addr().String()).Info("Running server")

	served := make(chan error, 1)
	go func() {
		defer func() {
			if err := recover(); err != nil {
				server.deps.Logger.With(logger.ERROR, err).Error("panic in Serve")
			}
		}()
		served <- server.httpServer.Serve(ln)
	}()

	select {
	case err := <-served:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http: %w", errors.WithStack(err))
	case <-ctx.Done():
		server.deps.Logger.Info("Server context closed, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), SHUTDOWN_TIMEOUT)
	defer cancel()
	if err := server.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", errors.WithStack(err))
	}
	return nil
}
