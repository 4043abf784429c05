package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"MandiPulse/internal/handler/api"
	pkgch "MandiPulse/pkg/clickhouse"
	"MandiPulse/pkg/config"
	xhttp "MandiPulse/pkg/http"
	pkgkafka "MandiPulse/pkg/kafka"
	applogger "MandiPulse/pkg/logger"
)

// App encapsulates the application lifecycle: the HTTP server, the live
// websocket hub, and the infrastructure clients that need closing.
type App struct {
	cfg        *config.Config
	handler    *api.PriceHandler
	hub        *api.LiveHub
	producer   *pkgkafka.Producer // nil when Kafka is disabled
	chClient   *pkgch.Client
	httpServer *xhttp.Server
	l          *applogger.Logger
}

func New(
	cfg *config.Config,
	handler *api.PriceHandler,
	hub *api.LiveHub,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
	l *applogger.Logger,
) *App {
	return &App{
		cfg:      cfg,
		handler:  handler,
		hub:      hub,
		producer: producer,
		chClient: chClient,
		l:        l,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	}
	if !a.cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetricsPath(""))
	} else if a.cfg.Metrics.Path != "" {
		opts = append(opts, xhttp.WithMetricsPath(a.cfg.Metrics.Path))
	}
	a.httpServer = xhttp.NewServer(a.handler, opts...)

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("server started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("env", a.cfg.Environment),
		applogger.Bool("kafka", a.producer != nil),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown stops the HTTP server first so no request lands on a closed
// client, then tears down the hub and infrastructure.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if a.hub != nil {
		if err := a.hub.Close(); err != nil {
			a.l.Warn("live hub close error", applogger.Error(err))
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.l.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.l.Info("stopped")
	return nil
}
