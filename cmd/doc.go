// Package cmd implements the command-line interface for icalmcp.
//
// This package provides the following commands:
//   - serve: Start the MCP server exposing calendar query tools
//   - refresh: Fetch all configured feeds once and report their status
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified.
package cmd
