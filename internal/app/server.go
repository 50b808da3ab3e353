package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/2lambda123/nasa-cumulus-sub001/internal/handlers"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/middleware"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

// NewServer builds the echo API: migrations, health checks and metrics.
func (a *App) NewServer() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(a.logger)

	e.Server.ReadTimeout = time.Duration(a.cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(a.cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(a.cfg.HttpServerIdleTimeoutSeconds) * time.Second

	e.Use(otelecho.Middleware(a.cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(a.logger))

	a.health.RegisterRoutes(e)
	handlers.NewMigrationHandler(a, a.logger).RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	return e
}

// Serve runs the API until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	e := a.NewServer()

	errs := make(chan error, 1)
	go func() {
		a.logger.Infof("Listening on port %d", a.cfg.Port)
		errs <- e.Start(fmt.Sprintf(":%d", a.cfg.Port))
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := shutdownContext()
	defer cancel()
	a.logger.Info("Shutting down server")
	return e.Shutdown(shutdownCtx)
}

// RunOnce migrates with the process configuration and writes the summary as
// JSON to out.
func (a *App) RunOnce(ctx context.Context, out io.Writer) error {
	summary, err := a.Run(ctx, nil)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
