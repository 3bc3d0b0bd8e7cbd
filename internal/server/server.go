// Package server provides HTTP server lifecycle management.
// Includes graceful shutdown handling for production deployments.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ShutdownFunc is a function that shuts down a component gracefully.
type ShutdownFunc func(ctx context.Context) error

// StartTask is work launched once the listener is accepting connections.
// A task that returns an error stops the server.
type StartTask struct {
	Name string
	Run  func(ctx context.Context) error
}

// Server wraps http.Server with graceful shutdown.
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger
	shutdownFuncs   []ShutdownFunc
	mu              sync.Mutex
	addr            string
	stop            chan struct{}
	stopOnce        sync.Once
}

// New creates a new Server instance.
func New(handler http.Handler, port int, readTimeout, writeTimeout, shutdownTimeout time.Duration, logger *slog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: readTimeout,
			WriteTimeout:      writeTimeout,
		},
		shutdownTimeout: shutdownTimeout,
		logger:          logger,
		shutdownFuncs:   make([]ShutdownFunc, 0),
		addr:            fmt.Sprintf(":%d", port),
		stop:            make(chan struct{}),
	}
}

// OnShutdown registers a function to be called during graceful shutdown.
// Shutdown functions are called in reverse order (LIFO) after the HTTP server stops.
func (s *Server) OnShutdown(name string, fn ShutdownFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdownFuncs = append(s.shutdownFuncs, func(ctx context.Context) error {
		s.logger.Info("shutting down component", "name", name)
		if err := fn(ctx); err != nil {
			s.logger.Error("component shutdown error", "name", name, "error", err)
			return err
		}
		s.logger.Info("component stopped", "name", name)
		return nil
	})
}

// Run binds the configured address and serves until a shutdown signal, a
// failed start task, or Shutdown.
func (s *Server) Run(tasks ...StartTask) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ln, tasks...)
}

// Serve accepts connections on ln. The start tasks are launched only after
// the listener is active, so requests are served while they run.
func (s *Server) Serve(ln net.Listener, tasks ...StartTask) error {
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	// Channel to receive shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	serverErr := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()
	s.logger.Info("server listening", "addr", s.Addr())

	taskCtx, cancelTasks := context.WithCancel(context.Background())
	defer cancelTasks()

	taskErr := make(chan error, len(tasks))
	for _, task := range tasks {
		go s.runTask(taskCtx, task, taskErr)
	}

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case err := <-taskErr:
		cancelTasks()
		if shutdownErr := s.gracefulShutdown(); shutdownErr != nil {
			s.logger.Error("shutdown after failed start task", "error", shutdownErr)
		}
		return err
	case sig := <-shutdown:
		s.logger.Info("shutdown signal received", "signal", sig.String())
		cancelTasks()
		return s.gracefulShutdown()
	case <-s.stop:
		cancelTasks()
		return s.gracefulShutdown()
	}
}

func (s *Server) runTask(ctx context.Context, task StartTask, errs chan<- error) {
	start := time.Now()
	s.logger.Info("start task running", "name", task.Name)

	if err := task.Run(ctx); err != nil {
		if ctx.Err() != nil {
			// Server is already stopping; the task was cancelled.
			return
		}
		s.logger.Error("start task failed",
			"name", task.Name,
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		errs <- fmt.Errorf("start task %s: %w", task.Name, err)
		return
	}

	s.logger.Info("start task completed",
		"name", task.Name,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// Shutdown asks a running Serve to stop gracefully. Safe to call more than once.
func (s *Server) Shutdown() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// gracefulShutdown attempts to gracefully shut down the server and all registered components.
func (s *Server) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	// Phase 1: Stop accepting new connections
	s.logger.Info("phase 1: stopping HTTP server", "timeout", s.shutdownTimeout)
	s.httpServer.SetKeepAlivesEnabled(false)

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}
	s.logger.Info("HTTP server stopped")

	s.mu.Lock()
	funcs := s.shutdownFuncs
	s.mu.Unlock()

	// Phase 2: Shutdown registered components in reverse order
	s.logger.Info("phase 2: stopping registered components", "count", len(funcs))

	var errs []error
	for i := len(funcs) - 1; i >= 0; i-- {
		if err := funcs[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		s.logger.Error("shutdown completed with errors", "error_count", len(errs))
		return errors.Join(errs...)
	}

	s.logger.Info("server stopped gracefully")
	return nil
}

// Addr returns the server address. Once serving, it is the bound address.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}
