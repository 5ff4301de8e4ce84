package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the icalmcp application
var rootCmd = &cobra.Command{
	Use:   "icalmcp",
	Short: "MCP server for querying iCalendar feeds",
	Long: `icalmcp aggregates events from one or more iCalendar (ICS) feeds and
exposes them to AI assistants through the Model Context Protocol.

It can run as:
  - An MCP server over stdio or streamable HTTP (default)
  - A one-shot feed refresh for checking feed health`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "icalmcp version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newRefreshCmd())
	rootCmd.AddCommand(newVersionCmd())
}
