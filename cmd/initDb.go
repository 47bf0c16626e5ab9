/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"faultline/internal/bootstrap/logging"
	"faultline/internal/domain/defect"
	"faultline/internal/errs"
	defectuc "faultline/internal/usecase/defect"
)

// initDbCmd represents the initDb command
var initDbCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Initialize database schema and seed settings",
	RunE: withApp(func(cmd *cobra.Command, deps *appDeps) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		logging.Info(ctx, "start init-db")

		if err := deps.App.InitSchema(ctx); err != nil {
			logging.Error(ctx, "initialize schema failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "initialize schema")
		}

		seed := defect.DefaultSettings()
		if profile := deps.App.Config.Severity.Profile; profile != "" {
			loaded, err := defectuc.LoadSeverityProfile(profile)
			if err != nil {
				logging.Error(ctx, "load severity profile failed", slog.Any("err", errs.Loggable(err)))
				return errs.Wrap(err, "load severity profile")
			}
			seed = loaded
		}
		if err := deps.Defects.SeedSettings(ctx, seed); err != nil {
			logging.Error(ctx, "seed settings failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "seed settings")
		}

		logging.Info(ctx, "init-db finished", slog.String("database_dsn", deps.App.Config.Database.DSN))
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "database schema initialized: %s\n", deps.App.Config.Database.DSN); err != nil {
			return errs.Wrap(err, "write init-db output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(initDbCmd)
}
