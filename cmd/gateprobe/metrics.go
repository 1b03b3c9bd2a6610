package main

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	gerrors "github.com/shazhongcheng/TestGoServer/internal/errors"
	"github.com/shazhongcheng/TestGoServer/pkg/metrics"
)

// metricsRouter exposes the recorder on /metrics.
func metricsRouter(rec *metrics.Recorder) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Method(http.MethodGet, "/metrics", rec.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok\n"))
	})
	return r
}

// startMetricsServer serves metricsRouter on addr until the server is
// closed.
func startMetricsServer(addr string, rec *metrics.Recorder, logger *slog.Logger) (*http.Server, net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, gerrors.New("G051").Wrap(err)
	}
	srv := &http.Server{
		Handler:           metricsRouter(rec),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	return srv, ln.Addr(), nil
}
