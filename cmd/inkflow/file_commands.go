package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"inkflow/internal/config"
	"inkflow/internal/store"
)

func newFileCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file",
		Short: "Inspect and create files",
	}
	cmd.AddCommand(newFileAddCommand(ctx))
	cmd.AddCommand(newFileListCommand(ctx))
	cmd.AddCommand(newFileShowCommand(ctx))
	cmd.AddCommand(newFileAuditCommand(ctx))
	return cmd
}

func newFileAddCommand(ctx *commandContext) *cobra.Command {
	var (
		requiresApproval bool
		target           int64
		createdBy        int64
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a file in the pre-repro queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(args[0])
			if title == "" {
				return errors.New("title is required")
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				params := store.NewFileParams{
					Title:            title,
					RequiresApproval: requiresApproval,
					NumberPrefix:     cfg.Workflow.FileNumberPrefix,
				}
				if target > 0 {
					params.TargetAssigneeID = &target
				}
				if createdBy > 0 {
					params.CreatedBy = &createdBy
				}
				file, err := st.CreateFile(cmd.Context(), params)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s (id %d)\n", file.FileNumber, file.ID)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&requiresApproval, "requires-approval", false, "File must pass customer approval")
	cmd.Flags().Int64Var(&target, "target", 0, "Destination designer for the pre-repro handoff")
	cmd.Flags().Int64Var(&createdBy, "user", 0, "Acting user id")
	return cmd
}

func newFileListCommand(ctx *commandContext) *cobra.Command {
	var statusFilters []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List files",
		RunE: func(cmd *cobra.Command, args []string) error {
			var statuses []store.Status
			for _, raw := range statusFilters {
				status, ok := store.ParseStatus(raw)
				if !ok {
					return fmt.Errorf("unknown status %q", raw)
				}
				statuses = append(statuses, status)
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				files, err := st.ListFiles(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				printFileTable(cmd, files)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&statusFilters, "status", nil, "Filter by status (repeatable)")
	return cmd
}

func newFileShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|number>",
		Short: "Show one file in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				file, err := resolveFile(cmd.Context(), st, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "File:       %s (id %d)\n", file.FileNumber, file.ID)
				fmt.Fprintf(out, "Title:      %s\n", file.Title)
				fmt.Fprintf(out, "Status:     %s\n", statusLabel(file.Status))
				fmt.Fprintf(out, "Stage:      %s\n", stageLabel(file.Stage))
				fmt.Fprintf(out, "Designer:   %s\n", optionalID(file.AssignedDesignerID))
				fmt.Fprintf(out, "Target:     %s\n", optionalID(file.TargetAssigneeID))
				fmt.Fprintf(out, "Pending:    %s\n", yesNo(file.PendingTakeover))
				fmt.Fprintf(out, "Approval:   %s\n", yesNo(file.RequiresApproval))
				fmt.Fprintf(out, "Iteration:  %s\n", file.IterationLabel)
				if file.ClosedAt != nil {
					fmt.Fprintf(out, "Closed:     %s\n", file.ClosedAt.Format("2006-01-02 15:04:05"))
				}

				timer, err := st.ActiveTimer(cmd.Context(), file.ID)
				if err != nil {
					return err
				}
				if timer != nil {
					fmt.Fprintf(out, "Timer:      open since %s (user %s)\n",
						timer.StartedAt.Format("2006-01-02 15:04:05"), optionalID(timer.UserID))
				}
				return nil
			})
		},
	}
}

func newFileAuditCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "audit <id|number>",
		Short: "Show a file's audit trail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				file, err := resolveFile(cmd.Context(), st, args[0])
				if err != nil {
					return err
				}
				entries, err := st.AuditTrail(cmd.Context(), file.ID)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					rows = append(rows, []string{
						entry.CreatedAt.Format("2006-01-02 15:04:05"),
						string(entry.Action),
						optionalID(entry.ByUserID),
						entry.Payload,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Time", "Action", "User", "Detail"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}

func printFileTable(cmd *cobra.Command, files []*store.File) {
	rows := make([][]string, 0, len(files))
	for _, file := range files {
		rows = append(rows, []string{
			strconv.FormatInt(file.ID, 10),
			file.FileNumber,
			file.Title,
			statusLabel(file.Status),
			optionalID(file.AssignedDesignerID),
			yesNo(file.PendingTakeover),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"ID", "Number", "Title", "Status", "Designer", "Pending"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
}

// resolveFile accepts either a numeric id or a file number.
func resolveFile(ctx context.Context, st *store.Store, arg string) (*store.File, error) {
	arg = strings.TrimSpace(arg)
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		file, err := st.GetFile(ctx, id)
		if err != nil {
			return nil, err
		}
		if file == nil {
			return nil, fmt.Errorf("no file with id %d", id)
		}
		return file, nil
	}
	file, err := st.GetFileByNumber(ctx, arg)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, fmt.Errorf("no file numbered %s", arg)
	}
	return file, nil
}
