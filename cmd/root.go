// Package cmd provides the maris CLI commands.
//
// Running maris with no arguments starts the interactive chat TUI.
// Subcommands manage sessions without entering the TUI.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "maris",
	Short: "Maris - terminal front end for your AI agent",
	Long: `Maris is a terminal chat front end for an AI agent backend.

It streams responses over a WebSocket connection, shows tool activity
grouped by what the agent is doing, and persists every conversation to
PostgreSQL so sessions survive restarts.

Running maris with no arguments starts the interactive chat.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
