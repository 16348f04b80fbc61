// Package serve runs the HTTP server hosting the feedback API.
package serve

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"github.com/jkoskela/vocalis/internal/api"
	"github.com/jkoskela/vocalis/internal/conf"
	"github.com/jkoskela/vocalis/internal/datastore"
	"github.com/jkoskela/vocalis/internal/logging"
	"github.com/jkoskela/vocalis/internal/notification"
	"github.com/jkoskela/vocalis/internal/observability"
	"github.com/jkoskela/vocalis/internal/pipeline"
	"github.com/jkoskela/vocalis/internal/provider"
	"github.com/jkoskela/vocalis/internal/publish"
)

// Command returns the serve subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the feedback API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), settings)
		},
	}
	cmd.Flags().StringVar(&settings.Server.Host, "host", settings.Server.Host, "Address to listen on")
	cmd.Flags().StringVar(&settings.Server.Port, "port", settings.Server.Port, "Port to listen on")
	return cmd
}

func run(ctx context.Context, settings *conf.Settings) error {
	log := logging.ForService("server")
	if settings.Main.Log.Enabled {
		fileLog, closeLog, err := logging.NewFileLogger(
			filepath.Join(settings.Main.Log.Path, "server.log"), "server", slog.LevelInfo)
		if err != nil {
			return err
		}
		log = fileLog
		defer func() { _ = closeLog() }()
	}

	ds := datastore.New(settings)
	if ds == nil {
		return errors.New("no datastore configured, enable sqlite output")
	}
	if err := ds.Open(); err != nil {
		return err
	}
	defer func() {
		if err := ds.Close(); err != nil {
			log.Error("datastore close failed", "error", err)
		}
	}()

	var client provider.Client
	if oc := provider.NewOpenAI(&settings.Provider, nil); oc != nil {
		client = oc
		log.Info("provider configured", "model", settings.Provider.Model)
	} else {
		log.Warn("no provider configured, transcription degrades and synthesis is unavailable")
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		return err
	}

	dispatcher := notification.NewDispatcher(settings)
	dispatcher.Start()
	defer dispatcher.Stop()

	processor := pipeline.New(ds, settings, client, metrics.Pipeline)
	publisher := publish.NewManager(ds, settings, dispatcher, metrics.Publish)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	api.RegisterMiddleware(e)
	api.New(e, ds, settings, processor, publisher, metrics)

	addr := net.JoinHostPort(settings.Server.Host, settings.Server.Port)
	errChan := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	log.Info("server started", "addr", addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errChan:
		return err
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	case <-ctx.Done():
		log.Info("shutting down", "reason", "context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
