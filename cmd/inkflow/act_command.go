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

// actionNames lists the workflow transitions exposed by the act command.
var actionNames = []string{
	"assign", "takeover", "request_approval", "send_to_customer",
	"customer_ok", "customer_nok", "restart_mg",
	"quality_ok", "quality_nok", "direct_to_quality", "send_to_production",
}

func newActCommand(ctx *commandContext) *cobra.Command {
	var (
		user       int64
		designer   int64
		department string
		note       string
	)
	cmd := &cobra.Command{
		Use:       "act <action> <file-id>",
		Short:     "Apply one workflow transition to a file",
		Long:      "Apply one workflow transition to a file. Actions: " + fmt.Sprint(actionNames),
		Args:      cobra.ExactArgs(2),
		ValidArgs: actionNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			action := args[0]
			fileID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("malformed file id %q", args[1])
			}
			if user <= 0 {
				return errors.New("--user is required")
			}

			return ctx.withEngine(func(cfg *config.Config, st *store.Store, engine *workflow.Engine, _ *prerepro.Queue) error {
				runCtx := cmd.Context()
				var file *store.File
				switch action {
				case "assign":
					if designer <= 0 {
						return errors.New("--designer is required for assign")
					}
					file, err = engine.Assign(runCtx, fileID, designer, &user)
				case "takeover":
					if department == "" {
						return errors.New("--department is required for takeover")
					}
					file, err = engine.Takeover(runCtx, fileID, user, department)
				case "request_approval":
					file, err = engine.RequestApproval(runCtx, fileID, user)
				case "send_to_customer":
					file, err = engine.SendToCustomer(runCtx, fileID, &user)
				case "customer_ok":
					file, err = engine.CustomerOk(runCtx, fileID, &user)
				case "customer_nok":
					file, err = engine.CustomerNok(runCtx, fileID, &user, note)
				case "restart_mg":
					file, err = engine.RestartMg(runCtx, fileID, &user, note)
				case "quality_ok":
					file, err = engine.QualityOk(runCtx, fileID, &user)
				case "quality_nok":
					file, err = engine.QualityNok(runCtx, fileID, &user, note)
				case "direct_to_quality":
					file, err = engine.DirectToQuality(runCtx, fileID, user)
				case "send_to_production":
					file, err = engine.SendToProduction(runCtx, fileID, &user)
				default:
					return fmt.Errorf("unknown action %q", action)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", file.FileNumber, statusLabel(file.Status))
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&user, "user", 0, "Acting user id")
	cmd.Flags().Int64Var(&designer, "designer", 0, "Designer receiving the file (assign)")
	cmd.Flags().StringVar(&department, "department", "", "Department taking the file over (takeover)")
	cmd.Flags().StringVar(&note, "note", "", "Rejection or restart note")
	return cmd
}
