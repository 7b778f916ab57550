package infra

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// HTTPServer runs the API listener and owns its graceful shutdown.
type HTTPServer struct {
	srv    *http.Server
	logger *Logger
}

// NewHTTPServer wires the handler into an http.Server with the configured
// timeouts. The write timeout must outlast the longest synchronous
// generation call, which is why its default is generous.
func NewHTTPServer(cfg *Config, handler http.Handler, logger *Logger) *HTTPServer {
	return &HTTPServer{
		srv: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           handler,
			ReadTimeout:       cfg.HTTPReadTimeout,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      cfg.HTTPWriteTimeout,
			IdleTimeout:       cfg.HTTPIdleTimeout,
		},
		logger: logger,
	}
}

// Run serves until the context is cancelled, then drains in-flight requests
// for at most grace. A listener failure is returned immediately.
func (s *HTTPServer) Run(ctx context.Context, grace time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.srv.Addr).Msg("http: listening")
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Dur("grace", grace).Msg("http: draining")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}
