package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"inkflow/internal/config"
	"inkflow/internal/prerepro"
	"inkflow/internal/store"
	"inkflow/internal/workflow"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Work the pre-repro claim queue",
	}
	cmd.AddCommand(newQueueListCommand(ctx))
	cmd.AddCommand(newQueueClaimCommand(ctx))
	cmd.AddCommand(newQueueCompleteCommand(ctx))
	cmd.AddCommand(newQueueReturnCommand(ctx))
	return cmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List unclaimed pre-repro files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				files, err := st.UnclaimedPreRepro(cmd.Context())
				if err != nil {
					return err
				}
				if len(files) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "queue is empty")
					return nil
				}
				printFileTable(cmd, files)
				return nil
			})
		},
	}
}

func queueActionCommand(ctx *commandContext, use, short string, run func(*cobra.Command, *prerepro.Queue, int64, int64) error) *cobra.Command {
	var user int64
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if user <= 0 {
				return errors.New("--user is required")
			}
			fileID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("malformed file id %q", args[0])
			}
			return ctx.withEngine(func(cfg *config.Config, st *store.Store, _ *workflow.Engine, queue *prerepro.Queue) error {
				return run(cmd, queue, fileID, user)
			})
		},
	}
	cmd.Flags().Int64Var(&user, "user", 0, "Acting user id")
	return cmd
}

func newQueueClaimCommand(ctx *commandContext) *cobra.Command {
	return queueActionCommand(ctx, "claim <file-id>", "Claim an unclaimed file",
		func(cmd *cobra.Command, queue *prerepro.Queue, fileID, user int64) error {
			file, err := queue.Claim(cmd.Context(), fileID, user)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "claimed %s\n", file.FileNumber)
			return nil
		})
}

func newQueueCompleteCommand(ctx *commandContext) *cobra.Command {
	return queueActionCommand(ctx, "complete <file-id>", "Hand a claimed file into repro",
		func(cmd *cobra.Command, queue *prerepro.Queue, fileID, user int64) error {
			file, err := queue.Complete(cmd.Context(), fileID, user)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "handed %s to designer %s\n", file.FileNumber, optionalID(file.AssignedDesignerID))
			return nil
		})
}

func newQueueReturnCommand(ctx *commandContext) *cobra.Command {
	return queueActionCommand(ctx, "return <file-id>", "Return a claimed file to the queue",
		func(cmd *cobra.Command, queue *prerepro.Queue, fileID, user int64) error {
			file, err := queue.ReturnToQueue(cmd.Context(), fileID, user)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "returned %s to the queue\n", file.FileNumber)
			return nil
		})
}
