package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"faultline/internal/bootstrap/logging"
	"faultline/internal/errs"
	defectuc "faultline/internal/usecase/defect"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect and tune severity thresholds and closure rules",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective settings",
	RunE: withApp(func(cmd *cobra.Command, deps *appDeps) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		settings, err := deps.Defects.Settings(ctx)
		if err != nil {
			logging.Error(ctx, "load settings failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "load settings")
		}
		return printJSON(cmd, settings)
	}),
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change settings fields",
	RunE: withApp(func(cmd *cobra.Command, deps *appDeps) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		var input defectuc.UpdateSettingsInput
		if cmd.Flags().Changed("default-model") {
			value, _ := cmd.Flags().GetString("default-model")
			input.DefaultModel = &value
		}
		if cmd.Flags().Changed("unsafe-basic") {
			value, _ := cmd.Flags().GetStringSlice("unsafe-basic")
			input.UnsafeBasic = &value
		}
		if cmd.Flags().Changed("unsafe-graded") {
			value, _ := cmd.Flags().GetStringSlice("unsafe-graded")
			input.UnsafeGraded = &value
		}
		if cmd.Flags().Changed("before-after") {
			value, _ := cmd.Flags().GetBool("before-after")
			input.BeforeAfterRequired = &value
		}

		settings, err := deps.Defects.UpdateSettings(ctx, actorFromFlags(cmd), input)
		if err != nil {
			logging.Error(ctx, "update settings failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "update settings")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "settings updated: default_model=%s before_after=%v\n", settings.DefaultModel, settings.BeforeAfterRequired); err != nil {
			return errs.Wrap(err, "write settings output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(settingsCmd)

	settingsCmd.PersistentFlags().String("actor", "local", "Acting user id")
	settingsCmd.PersistentFlags().String("actor-name", "", "Acting user display name")
	settingsCmd.PersistentFlags().String("role", "admin", "Acting user role")

	settingsSetCmd.Flags().String("default-model", "", "Default severity model (basic|graded)")
	settingsSetCmd.Flags().StringSlice("unsafe-basic", nil, "Unsafe severities on the basic scale")
	settingsSetCmd.Flags().StringSlice("unsafe-graded", nil, "Unsafe severities on the graded scale")
	settingsSetCmd.Flags().Bool("before-after", false, "Require before and after photos to close")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}
