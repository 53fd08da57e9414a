package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := newServeCmd()
	rootCmd := &cobra.Command{
		Use:   "stockwatch",
		Short: "Product page restock monitor",
		Long: `stockwatch polls product pages, classifies them as in stock or out of stock,
and sends a Telegram message when a page comes back in stock.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		// Running without a subcommand serves the API.
		RunE: serve.RunE,
	}

	rootCmd.AddCommand(serve)
	rootCmd.AddCommand(newCheckCmd())
	return rootCmd
}
