package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newReferenceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reference [query]",
		Short: "List available references to align drafts to",
		Args:  maximumArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = strings.ToLower(args[0])
			}

			genomes, err := runner.Client().ListGenomes(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.ErrOrStderr(), "Reference ID\tName")
			for _, genome := range genomes {
				if query != "" &&
					!strings.Contains(strings.ToLower(genome.Name), query) &&
					!strings.Contains(strings.ToLower(genome.ID), query) {
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", genome.ID, genome.Name)
			}
			return nil
		},
	}
}
