package cli

import (
	"github.com/spf13/cobra"
)

func newDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download <ID> <path>",
		Short: "Download the results of an analysis",
		Long:  "Wait for an analysis to complete and download all result datasets to an existing folder.",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireDir(args[1]); err != nil {
				return err
			}
			_, err := runner.FetchResults(cmd.Context(), args[0], args[1])
			return err
		},
	}
}
