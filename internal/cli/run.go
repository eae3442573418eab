package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brinkmanlab/islandcompare-cli/internal/analysis"
	"github.com/brinkmanlab/islandcompare-cli/pkg/galaxy"
)

func newRunCmd() *cobra.Command {
	var (
		referenceID     string
		outputDir       string
		newickAccession string
		newickLabel     string
	)

	cmd := &cobra.Command{
		Use:   "run <analysis_label> <ID> <ID>...",
		Short: "Run IslandCompare on uploaded datasets",
		Long:  "Invoke the IslandCompare workflow on previously uploaded Genbank or EMBL datasets. A minimum of 2 datasets is required.",
		Args:  minimumArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			label := args[0]
			ids := args[1:]
			if outputDir != "" {
				if err := requireDir(outputDir); err != nil {
					return err
				}
			}

			workflow, err := runner.FindWorkflow(cmd.Context())
			if err != nil {
				return err
			}

			data := make([]*galaxy.Dataset, 0, len(ids))
			for _, id := range ids {
				dataset, err := runner.Client().ShowDataset(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("resolve dataset %s: %w", id, err)
				}
				data = append(data, dataset)
			}

			var tree *galaxy.Dataset
			if newickID := firstNonEmpty(newickAccession, newickLabel); newickID != "" {
				tree, err = runner.Client().ShowDataset(cmd.Context(), newickID)
				if err != nil {
					return fmt.Errorf("resolve newick dataset %s: %w", newickID, err)
				}
			}

			fmt.Fprintln(cmd.ErrOrStderr(), "Analysis ID:")
			invocationID, _, err := runner.Invoke(cmd.Context(), workflow, label, data, tree,
				newickLabel == "", analysis.SanitizeReferenceID(referenceID))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), invocationID)

			if outputDir != "" {
				_, err = runner.FetchResults(cmd.Context(), invocationID, outputDir)
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&referenceID, "reference", "r", "", "Reference ID to align drafts to. See 'reference' command")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Wait for analysis to complete and output results to path")
	cmd.Flags().StringVarP(&newickAccession, "newick-accession", "a", "", "Newick dataset ID containing accession identifiers")
	cmd.Flags().StringVarP(&newickLabel, "newick-label", "l", "", "Newick dataset ID containing dataset label identifiers")
	cmd.MarkFlagsMutuallyExclusive("newick-accession", "newick-label")
	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
