package cli

import (
	"github.com/spf13/cobra"
)

func newCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <ID>",
		Short: "Cancel an analysis",
		Long:  "Cancel a running analysis and delete its output history. Cancelling a finished analysis only deletes the history.",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workflow, err := runner.FindWorkflow(cmd.Context())
			if err != nil {
				return err
			}
			return runner.Cancel(cmd.Context(), workflow.ID, args[0])
		},
	}
}
