package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List submitted analyses",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			workflow, err := runner.FindWorkflow(cmd.Context())
			if err != nil {
				return err
			}

			runs, err := runner.ListRuns(cmd.Context(), workflow)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.ErrOrStderr(), "ID\tLabel\tState")
			for _, run := range runs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", run.ID, run.Label, run.State)
			}
			return nil
		},
	}
}
