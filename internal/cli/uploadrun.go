package cli

import (
	"github.com/spf13/cobra"

	"github.com/brinkmanlab/islandcompare-cli/internal/analysis"
)

func newUploadRunCmd() *cobra.Command {
	var (
		referenceID     string
		newickAccession string
		newickLabel     string
	)

	cmd := &cobra.Command{
		Use:   "upload_run <analysis_label> <path> <path>... <output_path>",
		Short: "Upload, run analysis, and download results",
		Long:  "Upload Genbank or EMBL files, invoke IslandCompare, download the results to output_path, and purge the uploads. A minimum of 2 datasets is required.",
		Args:  minimumArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args[1 : len(args)-1] {
				if err := requireFile(path); err != nil {
					return err
				}
			}
			newickPath := firstNonEmpty(newickAccession, newickLabel)
			if newickPath != "" {
				if err := requireFile(newickPath); err != nil {
					return err
				}
			}
			if err := requireDir(args[len(args)-1]); err != nil {
				return err
			}

			workflow, err := runner.FindWorkflow(cmd.Context())
			if err != nil {
				return err
			}

			input := analysis.RoundTripInput{
				Label:       args[0],
				DataPaths:   args[1 : len(args)-1],
				NewickPath:  newickPath,
				OutputDir:   args[len(args)-1],
				Accession:   newickLabel == "",
				ReferenceID: analysis.SanitizeReferenceID(referenceID),
			}

			_, err = runner.RoundTrip(cmd.Context(), workflow, input)
			return err
		},
	}

	cmd.Flags().StringVarP(&referenceID, "reference", "r", "", "Reference ID to align drafts to. See 'reference' command")
	cmd.Flags().StringVarP(&newickAccession, "newick-accession", "a", "", "Path of a newick file containing accession identifiers")
	cmd.Flags().StringVarP(&newickLabel, "newick-label", "l", "", "Path of a newick file containing dataset label identifiers")
	cmd.MarkFlagsMutuallyExclusive("newick-accession", "newick-label")
	return cmd
}
