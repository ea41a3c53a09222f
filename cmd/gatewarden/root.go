package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the gatewarden CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gatewarden",
		Short: "Gatewarden - authentication gateway for live session hosts",
		Long: `Gatewarden sits in front of a live multiplayer session host and decides,
per intercepted action, whether an untrusted participant may proceed.
Participants authenticate with a short verification code; allow-listed
names bypass authentication entirely.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(newWhitelistCmd())
	cmd.AddCommand(newAdminsCmd())
	cmd.AddCommand(newCredentialsCmd())

	return cmd
}
