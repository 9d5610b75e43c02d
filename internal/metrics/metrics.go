package metrics

// Package metrics provides Prometheus metrics collection for the
// gasless swap services.
//
// This package includes:
// - HTTP request metrics (count, latency, errors)
// - Swap attempt metrics (terminal states, failure reasons, receipt waits)
// - Metrics HTTP server on configurable port
// - Echo middleware for automatic request instrumentation
//
// Usage:
//   import "github.com/bizk/ERC20-gasless-swap/internal/metrics"
//
//   // Start metrics server
//   metricsServer := metrics.StartMetricsServer(cfg.Metrics, []string{metrics.ServiceHTTP}, logger)
//   defer metricsServer.Stop(context.Background())
//
//   // Add middleware to Echo
//   e.Use(metrics.HTTPMiddleware())
