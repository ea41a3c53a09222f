package main

import (
	"github.com/spf13/cobra"

	"github.com/gatewarden/gatewarden/internal/control"
)

// newWhitelistCmd creates the whitelist subcommand group.
func newWhitelistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whitelist",
		Short: "Manage the authentication bypass list",
		Long: `Manage the allow-list of names that bypass authentication.
Commands talk to the running daemon over its control socket.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Add a name to the bypass list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := shortTimeout(cmd.Context())
			defer cancel()
			if err := control.NewClient().WhitelistAdd(ctx, args[0]); err != nil {
				return err
			}
			cmd.Printf("Added %s to the whitelist\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a name from the bypass list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := shortTimeout(cmd.Context())
			defer cancel()
			if err := control.NewClient().WhitelistRemove(ctx, args[0]); err != nil {
				return err
			}
			cmd.Printf("Removed %s from the whitelist\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List bypass list members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := shortTimeout(cmd.Context())
			defer cancel()
			names, err := control.NewClient().WhitelistList(ctx)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				cmd.Println("Whitelist is empty")
				return nil
			}
			for _, name := range names {
				cmd.Println(name)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reload",
		Short: "Re-read the authorization file from disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := shortTimeout(cmd.Context())
			defer cancel()
			if err := control.NewClient().WhitelistReload(ctx); err != nil {
				return err
			}
			cmd.Println("Authorization file reloaded")
			return nil
		},
	})

	return cmd
}

// newAdminsCmd creates the admins subcommand group.
func newAdminsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admins",
		Short: "Manage the administrator list",
		Long: `Manage the list of names with administrator privilege.
Commands talk to the running daemon over its control socket.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Grant administrator privilege to a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := shortTimeout(cmd.Context())
			defer cancel()
			if err := control.NewClient().AdminAdd(ctx, args[0]); err != nil {
				return err
			}
			cmd.Printf("Granted administrator privilege to %s\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <name>",
		Short: "Revoke administrator privilege from a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := shortTimeout(cmd.Context())
			defer cancel()
			if err := control.NewClient().AdminRemove(ctx, args[0]); err != nil {
				return err
			}
			cmd.Printf("Revoked administrator privilege from %s\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List administrators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := shortTimeout(cmd.Context())
			defer cancel()
			names, err := control.NewClient().AdminList(ctx)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				cmd.Println("No administrators configured")
				return nil
			}
			for _, name := range names {
				cmd.Println(name)
			}
			return nil
		},
	})

	return cmd
}
