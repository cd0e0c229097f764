package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jittakal/ordersetl/internal/server"
)

const shutdownTimeout = 30 * time.Second

// serveCmd runs the webhook server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve S3-compatible event notifications over HTTP",
	Long: `Listen on server.port for POST /events. Each request body is an S3 event
notification (as sent by MinIO webhooks) and runs one invocation
synchronously. /health/live, /health/ready and /metrics are served on the
same port.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	_, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	httpServer, err := startServer(a, a.handler)
	if err != nil {
		return err
	}
	<-ctx.Done()
	a.logger.Info("received termination signal")

	return shutdownServer(httpServer)
}

// startServer starts the HTTP server and marks it ready once it listens.
func startServer(a *app, invoker server.Invoker) (*server.Server, error) {
	checker := server.NewStatusChecker()
	checker.SetCheck("storage", a.store.Backend())
	checker.SetCheck("format", a.config.Storage.Format)

	registry := a.metrics.Registry()
	if !a.config.Observability.Metrics.Enabled {
		registry = nil
	}
	httpServer := server.NewServer(a.config.Server.Port, invoker, checker, registry, a.logger)
	if err := httpServer.Start(); err != nil {
		return nil, err
	}
	checker.MarkReady()
	return httpServer, nil
}

func shutdownServer(httpServer *server.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(ctx)
}
