package cli

import (
	"github.com/spf13/cobra"
)

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [ID]",
		Short: "Delete uploaded datasets",
		Long:  "Delete one uploaded dataset, or the entire upload history when no ID is given.",
		Args:  maximumArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			history, err := runner.UploadHistory(cmd.Context())
			if err != nil {
				return err
			}
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return runner.DeleteData(cmd.Context(), history.ID, id)
		},
	}
}
