package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/YelzhanWeb/bloompizza/internal/adapter/logger"
	"github.com/YelzhanWeb/bloompizza/internal/config"
)

const shutdownTimeout = 10 * time.Second

// Register mounts the order API routes.
func (h *OrderHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST "+config.OrderPath, h.CreateOrder)
	mux.HandleFunc("GET /api/openapi.yaml", h.Contract)
}

func (h *TrackingHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET "+config.OrderPath+"/{number}", h.GetOrder)
}

func NewServer(port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Serve runs srv until ctx is done, then shuts it down gracefully.
func Serve(ctx context.Context, srv *http.Server, logger logger.Logger) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	logger.Info("server_started", fmt.Sprintf("Listening on %s", srv.Addr), "startup", map[string]interface{}{
		"addr": srv.Addr,
	})

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutdown_initiated", "Shutting down HTTP server", "shutdown", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
