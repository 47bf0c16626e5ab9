package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"faultline/internal/bootstrap/logging"
	"faultline/internal/errs"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Deliver staged mutations to the remote system of record",
}

var syncFlushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Make one delivery pass over the pending outbox",
	RunE: withApp(func(cmd *cobra.Command, deps *appDeps) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		report, err := deps.Syncer.Flush(ctx)
		if err != nil {
			logging.Error(ctx, "flush outbox failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "flush outbox")
		}

		if _, err := fmt.Fprintf(
			cmd.OutOrStdout(),
			"delivered=%d retried=%d abandoned=%d deferred=%d remaining=%d\n",
			report.Delivered, report.Retried, report.Abandoned, report.Deferred, report.Remaining,
		); err != nil {
			return errs.Wrap(err, "write flush output")
		}
		return nil
	}),
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show outbox depth and recent dead letters",
	RunE: withApp(func(cmd *cobra.Command, deps *appDeps) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		status, err := deps.Syncer.Status(ctx)
		if err != nil {
			logging.Error(ctx, "sync status failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "sync status")
		}
		return printJSON(cmd, status)
	}),
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.AddCommand(syncFlushCmd)
	syncCmd.AddCommand(syncStatusCmd)
}
