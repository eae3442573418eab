package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List uploaded datasets",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			history, err := runner.UploadHistory(cmd.Context())
			if err != nil {
				return err
			}

			datasets, err := runner.ListData(cmd.Context(), history.ID)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.ErrOrStderr(), "ID\tLabel")
			if len(datasets) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "No datasets found")
				return nil
			}
			for _, d := range datasets {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", d.ID, d.Name)
			}
			return nil
		},
	}
}
