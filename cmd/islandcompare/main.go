package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"

	"github.com/brinkmanlab/islandcompare-cli/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCmd().ExecuteContext(ctx); err != nil {
		banner := color.New(color.Bold, color.FgRed).Sprint("ERROR:")
		fmt.Fprintf(os.Stderr, "\n%s %s\n", banner, err)
		if cli.IsUsageError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
