package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	logLevel  string
	logFormat string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "reconcile",
		Short:         "Maintenance jobs for the hrdesk ledgers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console, json)")
	root.AddCommand(earningsCmd())
	return root
}
