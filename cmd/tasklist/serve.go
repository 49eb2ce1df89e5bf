package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/tasklist/api/handler"
	"github.com/fastygo/tasklist/internal/middleware"
	"github.com/fastygo/tasklist/internal/router"
	"github.com/fastygo/tasklist/pkg/httpcontext"
	authUC "github.com/fastygo/tasklist/usecase/auth"
)

const eventsKeepAlive = 15 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the task list over HTTP with a live event stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
}

func runServe(cmd *cobra.Command) error {
	opts := appOptions{background: true}
	a, err := loadApp(cmd, opts)
	if err != nil {
		return err
	}
	ctx, cancel := a.manager.SignalContext(cmd.Context())
	defer cancel()

	if err := a.wire(ctx, opts); err != nil {
		return err
	}
	if err := a.tasks.Bootstrap(ctx, a.seed); err != nil {
		a.logger.Warn("serving without starter tasks", zap.Error(err))
	}

	cfg := a.cfg
	authUseCase := authUC.New(cfg.JWT.Secret, cfg.JWT.Issuer, a.logger)
	if !authUseCase.Enabled() {
		a.logger.Warn("JWT_SECRET is empty, API is unauthenticated")
	}
	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Task:   apiHandler.NewTaskHandler(a.tasks, ctxAdapter, a.logger),
		Health: apiHandler.NewHealthHandler(a.monitor, a.tasks, ctxAdapter, a.logger),
		Events: apiHandler.NewEventsHandler(a.hub, ctxAdapter, a.logger, eventsKeepAlive),
	}
	if cfg.HTTP.EnableMetrics {
		handlers.Metrics = a.metrics.Handler()
	}

	r := router.New(handlers, middleware.JWTAuth(authUseCase, a.logger))
	handler := r.Handler
	if cfg.HTTP.EnableMetrics {
		handler = a.metrics.Instrument(handler)
	}

	server := &fasthttp.Server{
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server started", zap.String("address", cfg.Address()))
		errCh <- server.ListenAndServe(cfg.Address())
	}()

	a.manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})
	// Open event streams hold their connections; closing the hub ends them
	// so the server can drain.
	a.manager.Register("event_hub", func(context.Context) error {
		a.hub.Close()
		return nil
	})

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
		if serveErr != nil {
			a.logger.Error("server crashed", zap.Error(serveErr))
		}
	}
	return errors.Join(serveErr, a.shutdown())
}
