package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Port string `envconfig:"METRICS_PORT" default:"88"`
}

// Server serves the Prometheus scrape endpoint on its own port so the
// scrape surface never shares a listener with the public API.
type Server struct {
	srv    *http.Server
	logger *logrus.Logger
}

// StartMetricsServer registers metrics for the given services and
// starts the scrape endpoint in the background.
func StartMetricsServer(cfg Config, services []string, logger *logrus.Logger) *Server {
	RegisterMetrics(services, logger)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s := &Server{srv: srv, logger: logger}
	go func() {
		logger.Infof("metrics server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("metrics server stopped: %v", err)
		}
	}()
	return s
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
