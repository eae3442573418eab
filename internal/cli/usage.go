package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// UsageError marks a failure caused by how the command was called rather
// than by the analysis itself. The process exits with code 2 for these.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

// IsUsageError reports whether err stems from bad command usage.
func IsUsageError(err error) bool {
	var usage *UsageError
	return errors.As(err, &usage)
}

func usageErrorf(format string, args ...any) error {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// exactArgs mirrors cobra.ExactArgs but yields a UsageError so the exit
// code distinguishes misuse from runtime failures.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usageErrorf("%s requires exactly %d argument(s), received %d", cmd.Name(), n, len(args))
		}
		return nil
	}
}

func minimumArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < n {
			return usageErrorf("%s requires at least %d argument(s), received %d", cmd.Name(), n, len(args))
		}
		return nil
	}
}

func maximumArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) > n {
			return usageErrorf("%s accepts at most %d argument(s), received %d", cmd.Name(), n, len(args))
		}
		return nil
	}
}

func rangeArgs(min, max int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := minimumArgs(min)(cmd, args); err != nil {
			return err
		}
		return maximumArgs(max)(cmd, args)
	}
}

// requireFile validates that path names an existing regular file.
func requireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return usageErrorf("invalid file path specified: %s", path)
	}
	return nil
}

// requireDir validates that path names an existing folder.
func requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return usageErrorf("output path must be an existing folder: %s", path)
	}
	return nil
}
