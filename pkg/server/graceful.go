// Package server runs an HTTP handler until the process is told to stop,
// then drains in-flight requests.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dd0wney/shardkv/pkg/logging"
)

// ConfigReloadFunc reloads configuration on SIGHUP
type ConfigReloadFunc func() error

// Options tunes the underlying http.Server. Zero values select defaults.
type Options struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	Logger          logging.Logger
}

func (o Options) withDefaults() Options {
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = 30 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 60 * time.Second
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = 120 * time.Second
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = 30 * time.Second
	}
	o.Logger = logging.OrNop(o.Logger)
	return o
}

// GracefulServer wraps an http.Server with signal driven shutdown and
// configuration reload.
type GracefulServer struct {
	server          *http.Server
	log             logging.Logger
	shutdownTimeout time.Duration

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	shutdownErr  error

	configMu       sync.RWMutex
	configReloadFn ConfigReloadFunc
}

// NewGracefulServer creates a server for handler on addr.
func NewGracefulServer(addr string, handler http.Handler, opts Options) *GracefulServer {
	opts = opts.withDefaults()
	return &GracefulServer{
		server: &http.Server{
			Addr:           addr,
			Handler:        handler,
			ReadTimeout:    opts.ReadTimeout,
			WriteTimeout:   opts.WriteTimeout,
			IdleTimeout:    opts.IdleTimeout,
			MaxHeaderBytes: 1 << 20,
		},
		log:             opts.Logger.With(logging.Component("server")),
		shutdownTimeout: opts.ShutdownTimeout,
		shutdownCh:      make(chan struct{}),
	}
}

// Run listens on the configured address and serves until ctx is done or
// SIGINT/SIGTERM arrives, then shuts down gracefully. SIGHUP triggers
// ReloadConfig without stopping.
func (gs *GracefulServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", gs.server.Addr)
	if err != nil {
		return err
	}
	return gs.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (gs *GracefulServer) Serve(ctx context.Context, ln net.Listener) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	serveErr := make(chan error, 1)
	go func() {
		gs.log.Info("http server listening", logging.String("addr", ln.Addr().String()))
		serveErr <- gs.server.Serve(ln)
	}()

	for {
		select {
		case err := <-serveErr:
			if errors.Is(err, http.ErrServerClosed) {
				return gs.waitShutdown()
			}
			return err
		case <-hup:
			gs.log.Info("received SIGHUP, reloading configuration")
			gs.ReloadConfig()
		case <-ctx.Done():
			gs.log.Info("stop requested, shutting down", logging.Duration("timeout", gs.shutdownTimeout))
			err := gs.Shutdown(gs.shutdownTimeout)
			<-serveErr
			return err
		}
	}
}

// Shutdown stops accepting connections and waits up to timeout for
// in-flight requests. Calls after the first return the first result.
func (gs *GracefulServer) Shutdown(timeout time.Duration) error {
	gs.shutdownOnce.Do(func() {
		close(gs.shutdownCh)

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := gs.server.Shutdown(ctx); err != nil {
			gs.shutdownErr = err
			gs.log.Error("shutdown incomplete", logging.Error(err))
			return
		}
		gs.log.Info("server shutdown complete")
	})
	return gs.shutdownErr
}

func (gs *GracefulServer) waitShutdown() error {
	<-gs.shutdownCh
	return nil
}

// IsShuttingDown reports whether shutdown has been initiated
func (gs *GracefulServer) IsShuttingDown() bool {
	select {
	case <-gs.shutdownCh:
		return true
	default:
		return false
	}
}

// ShutdownChannel closes when shutdown is initiated
func (gs *GracefulServer) ShutdownChannel() <-chan struct{} {
	return gs.shutdownCh
}

// SetConfigReloadFunc sets the function run on SIGHUP
func (gs *GracefulServer) SetConfigReloadFunc(fn ConfigReloadFunc) {
	gs.configMu.Lock()
	defer gs.configMu.Unlock()
	gs.configReloadFn = fn
}

// ReloadConfig runs the reload function, if any.
func (gs *GracefulServer) ReloadConfig() error {
	gs.configMu.RLock()
	reloadFn := gs.configReloadFn
	gs.configMu.RUnlock()

	if reloadFn == nil {
		gs.log.Warn("configuration reload requested, but no reload function configured")
		return nil
	}

	if err := reloadFn(); err != nil {
		gs.log.Error("configuration reload failed", logging.Error(err))
		return err
	}
	gs.log.Info("configuration reload complete")
	return nil
}
