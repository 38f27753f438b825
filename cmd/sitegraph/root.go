// Package main provides the entry point for the sitegraph CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for sitegraph.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitegraph",
		Short: "Website crawler and internal link graph analyzer",
		Long: `Sitegraph crawls a website starting from a seed URL, maps its internal
link structure, and reports structural problems: broken pages, orphan
pages, and links that point at pages the crawl never reached.

Crawls are bounded by a page budget, a depth limit, and a per-page
fan-out cap, so a default run stays polite on the target site.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
