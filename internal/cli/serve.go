package cli

import (
	"context"
	"os/signal"
	"syscall"

	"promptcraft/internal/app"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Serve(cmd.Context())
		},
	}
}

// Serve runs the API until ctx is cancelled or the process gets SIGINT or
// SIGTERM. Both `promptcraft serve` and cmd/server start here.
func Serve(ctx context.Context) error {
	cfg := loadConfig()
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.EnvFileLoaded {
		log.Info("loaded .env")
	} else {
		log.Info("no .env file, using process environment")
	}
	log.Info("generator configured", "endpoint", cfg.Generator.Endpoint, "timeout", cfg.Generator.Timeout())

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to start", "error", err)
		return err
	}
	defer a.Close(context.WithoutCancel(ctx))

	if err := a.Serve(ctx); err != nil {
		log.Error("server stopped", "error", err)
		return err
	}
	log.Info("server exited")
	return nil
}
