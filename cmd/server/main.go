package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/bizk/ERC20-gasless-swap/internal/dex"
	"github.com/bizk/ERC20-gasless-swap/internal/graceful"
	"github.com/bizk/ERC20-gasless-swap/internal/logging"
	"github.com/bizk/ERC20-gasless-swap/internal/metrics"
	"github.com/bizk/ERC20-gasless-swap/internal/oneinch"
	"github.com/bizk/ERC20-gasless-swap/internal/tokens"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := newConfig()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	logger := logging.NewLogger(cfg.LogFormat)

	// Start metrics server with HTTP metrics for server
	metricsServer := metrics.StartMetricsServer(cfg.Metrics, []string{metrics.ServiceHTTP}, logger)
	defer func() {
		if metricsServer != nil {
			if err := metricsServer.Stop(ctx); err != nil {
				logger.Errorf("failed to stop metrics server: %v", err)
			}
		}
	}()

	client := oneinch.NewClient(cfg.OneInch, logger)
	service := dex.NewService(tokens.Default(), client, logger)
	handler := dex.NewHandler(service, logger)

	e := echo.New()
	e.HideBanner = true
	e.Use(
		middleware.Recover(),
		middleware.CORS(),
		metrics.HTTPMiddleware(),
	)
	handler.Register(e)

	go func() {
		sig := <-graceful.MakeSigintChan()
		logger.Infof("received exit signal: %v", sig)
		cancel()
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := e.Start(":" + cfg.Port)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatalf("server stopped: %v", err)
	}
	logger.Info("server stopped")
}
