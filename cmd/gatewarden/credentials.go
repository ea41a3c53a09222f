package main

import (
	"github.com/spf13/cobra"

	"github.com/gatewarden/gatewarden/internal/control"
)

// newCredentialsCmd creates the credentials subcommand group.
func newCredentialsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage the credential table",
		Long: `Register credentials and reload the credential table from disk.
Commands talk to the running daemon over its control socket. Secrets are
passed as arguments; prefer reload after editing the file for bulk changes.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name> <secret>",
		Short: "Register a new credential",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := shortTimeout(cmd.Context())
			defer cancel()
			if err := control.NewClient().CredentialAdd(ctx, args[0], args[1]); err != nil {
				return err
			}
			cmd.Printf("Registered credential for %s\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reload",
		Short: "Re-read the credential table from disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := shortTimeout(cmd.Context())
			defer cancel()
			count, err := control.NewClient().CredentialReload(ctx)
			if err != nil {
				return err
			}
			cmd.Printf("Credential table reloaded (%d entries)\n", count)
			return nil
		},
	})

	return cmd
}
