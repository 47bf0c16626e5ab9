package cmd

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"faultline/internal/bootstrap/logging"
	"faultline/internal/errs"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the defect API over HTTP",
	RunE: withApp(func(cmd *cobra.Command, deps *appDeps) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx = logging.WithAttrs(ctx, slog.String("command", cmd.CommandPath()))

		errCh := make(chan error, 1)
		go func() {
			errCh <- deps.Server.Start(ctx)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				logging.Error(ctx, "http server failed", slog.Any("err", errs.Loggable(err)))
				return errs.Wrap(err, "serve http")
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := deps.Server.Shutdown(shutdownCtx); err != nil {
			return errs.Wrap(err, "shutdown http server")
		}
		logging.Info(ctx, "http server stopped")
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
