package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <path> [label]",
		Short: "Upload datasets",
		Long:  "Upload a Genbank, EMBL, or Newick file to the Galaxy instance. The dataset label defaults to the file name.",
		Args:  rangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			label := ""
			if len(args) == 2 {
				label = args[1]
			}
			if err := requireFile(path); err != nil {
				return err
			}

			history, err := runner.UploadHistory(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.ErrOrStderr(), "Dataset ID:")
			dataset, err := runner.Upload(cmd.Context(), history.ID, path, label, "")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dataset.ID)
			return nil
		},
	}
}
