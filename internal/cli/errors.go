package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newErrorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "errors <ID>",
		Short: "Show the errors of a failed analysis",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			errs, err := runner.CollectErrors(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			jobIDs := make([]string, 0, len(errs))
			for id := range errs {
				jobIDs = append(jobIDs, id)
			}
			sort.Strings(jobIDs)
			for _, id := range jobIDs {
				fmt.Fprintln(cmd.OutOrStdout(), errs[id])
			}
			return nil
		},
	}
}
