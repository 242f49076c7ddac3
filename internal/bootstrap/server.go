package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultShutdownTimeout = 10 * time.Second

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// StartHTTPServer serves router until SIGINT or SIGTERM, then drains in-flight requests.
func StartHTTPServer(router *gin.Engine, cfg ServerConfig, auditLogger AuditLogger) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	return serve(newServer(router, cfg), cfg.ShutdownTimeout, quit, auditLogger)
}

func newServer(handler http.Handler, cfg ServerConfig) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

func serve(server *http.Server, shutdownTimeout time.Duration, quit <-chan os.Signal, auditLogger AuditLogger) error {
	log := zap.L().Named("bootstrap.server")
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server running", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if !ok {
			return nil
		}
		auditLogger.Log(context.Background(), AuditLog{
			Action:  "SERVER_FAILED",
			Message: "HTTP server stopped unexpectedly",
			Meta:    map[string]any{"error": err.Error()},
		})
		return fmt.Errorf("listen on %s: %w", server.Addr, err)
	case sig := <-quit:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
		auditLogger.Log(context.Background(), AuditLog{
			Action:  "SERVER_SHUTDOWN",
			Message: "Server is shutting down",
			Meta:    map[string]any{"signal": sig.String()},
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
		return err
	}
	log.Info("server exited gracefully")
	return nil
}
