package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"faultline/internal/bootstrap/logging"
	"faultline/internal/domain/defect"
	"faultline/internal/errs"
	defectuc "faultline/internal/usecase/defect"
)

var defectCmd = &cobra.Command{
	Use:   "defect",
	Short: "Raise, inspect and transition defects",
}

func actorFromFlags(cmd *cobra.Command) defectuc.Actor {
	id, _ := cmd.Flags().GetString("actor")
	name, _ := cmd.Flags().GetString("actor-name")
	role, _ := cmd.Flags().GetString("role")
	return defectuc.Actor{ID: id, Name: name, Role: defect.Role(role)}
}

// resolveOne maps a loose identifier from the command line to a record.
func resolveOne(ctx context.Context, deps *appDeps, query string) (defect.Defect, error) {
	d, err := deps.Defects.Resolve(ctx, query)
	if err != nil {
		return defect.Defect{}, err
	}
	if d == nil {
		return defect.Defect{}, fmt.Errorf("%w: nothing matches %q", defect.ErrNotFound, query)
	}
	return *d, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errs.Wrap(err, "marshal output")
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(raw)); err != nil {
		return errs.Wrap(err, "write output")
	}
	return nil
}

var defectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Raise a new defect",
	RunE: withApp(func(cmd *cobra.Command, deps *appDeps) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		title, _ := cmd.Flags().GetString("title")
		description, _ := cmd.Flags().GetString("description")
		model, _ := cmd.Flags().GetString("model")
		severity, _ := cmd.Flags().GetString("severity")
		status, _ := cmd.Flags().GetString("status")
		targetDate, _ := cmd.Flags().GetString("target-date")
		complianceTag, _ := cmd.Flags().GetString("compliance-tag")
		assetID, _ := cmd.Flags().GetString("asset")
		locationID, _ := cmd.Flags().GetString("location")
		inspectionID, _ := cmd.Flags().GetString("inspection")
		workOrderID, _ := cmd.Flags().GetString("work-order")
		siteID, _ := cmd.Flags().GetString("site")
		assigneeID, _ := cmd.Flags().GetString("assignee")
		assigneeName, _ := cmd.Flags().GetString("assignee-name")
		actions, _ := cmd.Flags().GetStringSlice("action")

		input := defectuc.CreateDefectInput{
			Title:                   title,
			Description:             description,
			SeverityModel:           model,
			Severity:                severity,
			Status:                  status,
			TargetRectificationDate: targetDate,
			ComplianceTag:           complianceTag,
			AssetID:                 assetID,
			LocationID:              locationID,
			InspectionID:            inspectionID,
			WorkOrderID:             workOrderID,
			SiteID:                  siteID,
			AssigneeID:              assigneeID,
			AssigneeName:            assigneeName,
		}
		for _, action := range actions {
			input.Actions = append(input.Actions, defectuc.ActionInput{Description: action, Required: true})
		}

		d, err := deps.Defects.Create(ctx, actorFromFlags(cmd), input)
		if err != nil {
			logging.Error(ctx, "create defect failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "create defect")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "created defect: %s (%s)\n", d.Code, d.ID); err != nil {
			return errs.Wrap(err, "write create output")
		}
		return nil
	}),
}

var defectShowCmd = &cobra.Command{
	Use:   "show <id|code|number>",
	Short: "Show one defect by any identifier form",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, deps *appDeps) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		d, err := resolveOne(ctx, deps, cmd.Flags().Arg(0))
		if err != nil {
			return errs.Wrap(err, "resolve defect")
		}
		return printJSON(cmd, d)
	}),
}

var defectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List defects matching the given filters",
	RunE: withApp(func(cmd *cobra.Command, deps *appDeps) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		status, _ := cmd.Flags().GetString("status")
		severity, _ := cmd.Flags().GetString("severity")
		siteID, _ := cmd.Flags().GetString("site")
		assetID, _ := cmd.Flags().GetString("asset")
		locationID, _ := cmd.Flags().GetString("location")
		assigneeID, _ := cmd.Flags().GetString("assignee")
		complianceTag, _ := cmd.Flags().GetString("compliance-tag")
		overdue, _ := cmd.Flags().GetBool("overdue")
		unsafeOnly, _ := cmd.Flags().GetBool("unsafe")
		unassigned, _ := cmd.Flags().GetBool("unassigned")
		search, _ := cmd.Flags().GetString("search")

		defects, err := deps.Defects.Query(ctx, defectuc.QueryFilter{
			Status:        status,
			Severity:      severity,
			SiteID:        siteID,
			AssetID:       assetID,
			LocationID:    locationID,
			AssigneeID:    assigneeID,
			ComplianceTag: complianceTag,
			Overdue:       overdue,
			Unsafe:        unsafeOnly,
			Unassigned:    unassigned,
			Search:        search,
		})
		if err != nil {
			logging.Error(ctx, "list defects failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list defects")
		}

		for _, d := range defects {
			marker := " "
			if d.Unsafe {
				marker = "!"
			}
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %-12s %-12s %-10s %s\n", marker, d.Code, d.Status, d.Severity, d.Title); err != nil {
				return errs.Wrap(err, "write list output")
			}
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%d defect(s)\n", len(defects)); err != nil {
			return errs.Wrap(err, "write list output")
		}
		return nil
	}),
}

var defectCloseCmd = &cobra.Command{
	Use:   "close <id|code|number>",
	Short: "Close a defect with a resolution note",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, deps *appDeps) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		d, err := resolveOne(ctx, deps, cmd.Flags().Arg(0))
		if err != nil {
			return errs.Wrap(err, "resolve defect")
		}

		resolution, _ := cmd.Flags().GetString("resolution")
		closed, err := deps.Defects.Close(ctx, actorFromFlags(cmd), d.ID, defectuc.CloseDefectInput{Resolution: resolution})
		if err != nil {
			logging.Error(ctx, "close defect failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "close defect")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "closed defect: %s\n", closed.Code); err != nil {
			return errs.Wrap(err, "write close output")
		}
		return nil
	}),
}

var defectReopenCmd = &cobra.Command{
	Use:   "reopen <id|code|number>",
	Short: "Reopen a closed defect, in place or as a new occurrence",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, deps *appDeps) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		d, err := resolveOne(ctx, deps, cmd.Flags().Arg(0))
		if err != nil {
			return errs.Wrap(err, "resolve defect")
		}

		mode, _ := cmd.Flags().GetString("mode")
		reopened, err := deps.Defects.Reopen(ctx, actorFromFlags(cmd), d.ID, defectuc.ReopenDefectInput{
			Mode: defectuc.ReopenMode(mode),
		})
		if err != nil {
			logging.Error(ctx, "reopen defect failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "reopen defect")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "reopened defect: %s (%s)\n", reopened.Code, reopened.ID); err != nil {
			return errs.Wrap(err, "write reopen output")
		}
		return nil
	}),
}

var defectUpdateCmd = &cobra.Command{
	Use:   "update <id|code|number>",
	Short: "Update fields of a defect",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, deps *appDeps) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		d, err := resolveOne(ctx, deps, cmd.Flags().Arg(0))
		if err != nil {
			return errs.Wrap(err, "resolve defect")
		}

		var input defectuc.UpdateDefectInput
		stringFlag := func(name string, dst **string) {
			if cmd.Flags().Changed(name) {
				value, _ := cmd.Flags().GetString(name)
				*dst = &value
			}
		}
		stringFlag("title", &input.Title)
		stringFlag("description", &input.Description)
		stringFlag("model", &input.SeverityModel)
		stringFlag("severity", &input.Severity)
		stringFlag("status", &input.Status)
		stringFlag("target-date", &input.TargetRectificationDate)
		stringFlag("compliance-tag", &input.ComplianceTag)
		stringFlag("assignee", &input.AssigneeID)
		stringFlag("assignee-name", &input.AssigneeName)

		updated, err := deps.Defects.Update(ctx, actorFromFlags(cmd), d.ID, input)
		if err != nil {
			logging.Error(ctx, "update defect failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "update defect")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "updated defect: %s status=%s severity=%s\n", updated.Code, updated.Status, updated.Severity); err != nil {
			return errs.Wrap(err, "write update output")
		}
		return nil
	}),
}

var defectCommentCmd = &cobra.Command{
	Use:   "comment <id|code|number>",
	Short: "Append a comment to a defect",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, deps *appDeps) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		d, err := resolveOne(ctx, deps, cmd.Flags().Arg(0))
		if err != nil {
			return errs.Wrap(err, "resolve defect")
		}

		body, _ := cmd.Flags().GetString("body")
		if _, err := deps.Defects.AddComment(ctx, actorFromFlags(cmd), d.ID, body); err != nil {
			logging.Error(ctx, "comment defect failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "comment defect")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "commented on defect: %s\n", d.Code); err != nil {
			return errs.Wrap(err, "write comment output")
		}
		return nil
	}),
}

var defectDeleteCmd = &cobra.Command{
	Use:   "delete <id|code|number>",
	Short: "Delete a defect locally and stage the deletion for sync",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, deps *appDeps) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		d, err := resolveOne(ctx, deps, cmd.Flags().Arg(0))
		if err != nil {
			return errs.Wrap(err, "resolve defect")
		}

		if err := deps.Defects.Delete(ctx, actorFromFlags(cmd), d.ID); err != nil {
			logging.Error(ctx, "delete defect failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "delete defect")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "deleted defect: %s\n", d.Code); err != nil {
			return errs.Wrap(err, "write delete output")
		}
		return nil
	}),
}

var defectSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show headline counts across all defects",
	RunE: withApp(func(cmd *cobra.Command, deps *appDeps) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		summary, err := deps.Defects.Summarize(ctx)
		if err != nil {
			logging.Error(ctx, "summarize defects failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "summarize defects")
		}
		return printJSON(cmd, summary)
	}),
}

func init() {
	rootCmd.AddCommand(defectCmd)

	defectCmd.PersistentFlags().String("actor", "local", "Acting user id")
	defectCmd.PersistentFlags().String("actor-name", "", "Acting user display name")
	defectCmd.PersistentFlags().String("role", "admin", "Acting user role")

	defectCreateCmd.Flags().String("title", "", "Defect title")
	defectCreateCmd.Flags().String("description", "", "Defect description")
	defectCreateCmd.Flags().String("model", "", "Severity model (basic|graded)")
	defectCreateCmd.Flags().String("severity", "", "Severity on the chosen scale")
	defectCreateCmd.Flags().String("status", "", "Initial status (draft|open)")
	defectCreateCmd.Flags().String("target-date", "", "Target rectification date (RFC3339)")
	defectCreateCmd.Flags().String("compliance-tag", "", "Compliance tag")
	defectCreateCmd.Flags().String("asset", "", "Asset id")
	defectCreateCmd.Flags().String("location", "", "Location id")
	defectCreateCmd.Flags().String("inspection", "", "Inspection id")
	defectCreateCmd.Flags().String("work-order", "", "Work order id")
	defectCreateCmd.Flags().String("site", "", "Site id")
	defectCreateCmd.Flags().String("assignee", "", "Assignee id")
	defectCreateCmd.Flags().String("assignee-name", "", "Assignee display name")
	defectCreateCmd.Flags().StringSlice("action", nil, "Required rectification action (repeatable)")
	defectCmd.AddCommand(defectCreateCmd)

	defectCmd.AddCommand(defectShowCmd)

	defectListCmd.Flags().String("status", "", "Filter by status")
	defectListCmd.Flags().String("severity", "", "Filter by severity")
	defectListCmd.Flags().String("site", "", "Filter by site id")
	defectListCmd.Flags().String("asset", "", "Filter by asset id")
	defectListCmd.Flags().String("location", "", "Filter by location id")
	defectListCmd.Flags().String("assignee", "", "Filter by assignee id")
	defectListCmd.Flags().String("compliance-tag", "", "Filter by compliance tag")
	defectListCmd.Flags().Bool("overdue", false, "Only defects past their target date")
	defectListCmd.Flags().Bool("unsafe", false, "Only unsafe defects")
	defectListCmd.Flags().Bool("unassigned", false, "Only unassigned defects")
	defectListCmd.Flags().String("search", "", "Free text over code, title, description and asset")
	defectCmd.AddCommand(defectListCmd)

	defectUpdateCmd.Flags().String("title", "", "New title")
	defectUpdateCmd.Flags().String("description", "", "New description")
	defectUpdateCmd.Flags().String("model", "", "New severity model")
	defectUpdateCmd.Flags().String("severity", "", "New severity")
	defectUpdateCmd.Flags().String("status", "", "New status")
	defectUpdateCmd.Flags().String("target-date", "", "New target rectification date (RFC3339)")
	defectUpdateCmd.Flags().String("compliance-tag", "", "New compliance tag")
	defectUpdateCmd.Flags().String("assignee", "", "New assignee id")
	defectUpdateCmd.Flags().String("assignee-name", "", "New assignee display name")
	defectCmd.AddCommand(defectUpdateCmd)

	defectCloseCmd.Flags().String("resolution", "", "Resolution note")
	defectCmd.AddCommand(defectCloseCmd)

	defectReopenCmd.Flags().String("mode", string(defectuc.ReopenSameOccurrence), "Reopen mode (same_occurrence|new_occurrence)")
	defectCmd.AddCommand(defectReopenCmd)

	defectCommentCmd.Flags().String("body", "", "Comment body")
	defectCmd.AddCommand(defectCommentCmd)

	defectCmd.AddCommand(defectDeleteCmd)
	defectCmd.AddCommand(defectSummaryCmd)
}
