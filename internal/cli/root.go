// Package cli implements the islandcompare command line interface.
package cli

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/brinkmanlab/islandcompare-cli/internal/analysis"
	"github.com/brinkmanlab/islandcompare-cli/internal/logging"
	"github.com/brinkmanlab/islandcompare-cli/pkg/galaxy"
)

var (
	flagHost      string
	flagKey       string
	flagTimeout   time.Duration
	flagQuiet     bool
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
	runner *analysis.Runner

	timeoutCancel context.CancelFunc
)

// defaultHost returns the default Galaxy URL, checking GALAXY_HOST first.
func defaultHost() string {
	if h := os.Getenv("GALAXY_HOST"); h != "" {
		return h
	}
	return galaxy.DefaultBaseURL
}

// NewRootCmd creates the root cobra command for the islandcompare CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "islandcompare",
		Short: "IslandCompare command line interface",
		Long: "Submit microbial genomes to a Galaxy instance for genomic island\n" +
			"prediction with IslandCompare, track the analysis, and retrieve results.",
		Version: "0.1.0",
		// Unknown subcommands land here instead of cobra's default error,
		// so they carry the usage exit code like other argument mistakes.
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageErrorf("unknown command %q for %q", args[0], cmd.CommandPath())
			}
			return nil
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.NewLogger(logging.ParseLevel(flagLogLevel), flagLogFormat)

			fileCfg, err := loadFileConfig()
			if err != nil {
				return err
			}
			host := flagHost
			if !cmd.Flags().Changed("host") && os.Getenv("GALAXY_HOST") == "" && fileCfg.Host != "" {
				host = fileCfg.Host
			}
			key := flagKey
			if key == "" {
				key = fileCfg.Key
			}
			if key == "" {
				return usageErrorf("an API key is required: pass --key, set GALAXY_API_KEY, or add it to the config file")
			}

			client := galaxy.NewClient(galaxy.DefaultConfig().WithBaseURL(host).WithAPIKey(key), logger)
			runner = analysis.NewRunner(client, logger)
			runner.Quiet = flagQuiet
			runner.Status = cmd.ErrOrStderr()
			runner.Out = cmd.OutOrStdout()

			if flagTimeout > 0 {
				ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
				timeoutCancel = cancel
				cmd.SetContext(ctx)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if timeoutCancel != nil {
				timeoutCancel()
				timeoutCancel = nil
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Flag parse failures are usage errors, same as bad positional args.
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &UsageError{Message: err.Error()}
	})

	root.PersistentFlags().StringVar(&flagHost, "host", defaultHost(), "Galaxy instance url (or GALAXY_HOST env)")
	root.PersistentFlags().StringVar(&flagKey, "key", os.Getenv("GALAXY_API_KEY"), "API key (or GALAXY_API_KEY env). The key for the default host is provided on the Analysis page at https://islandcompare.ca/analysis")
	root.PersistentFlags().DurationVar(&flagTimeout, "timeout", 0, "Abort the command after this duration (0 disables)")
	root.PersistentFlags().BoolVar(&flagQuiet, "quiet", false, "Suppress spinner and progress bars")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newUploadCmd(),
		newListCmd(),
		newDeleteCmd(),
		newReferenceCmd(),
		newRunCmd(),
		newRunsCmd(),
		newDownloadCmd(),
		newCancelCmd(),
		newErrorsCmd(),
		newUploadRunCmd(),
	)

	return root
}
