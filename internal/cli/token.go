package cli

import (
	"fmt"

	"github.com/ashureev/iwe-console/internal/endpoint"
	"github.com/spf13/cobra"
)

func newTokenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the development token",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <token>",
			Short: "Store the development token",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := a.openStorage()
				if err != nil {
					return err
				}
				defer closeStore(store, a.logger)
				if err := store.Set(cmd.Context(), endpoint.DevTokenKey, args[0]); err != nil {
					return fmt.Errorf("store token: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "token stored")
				return nil
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the token the next connection would use",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				store, err := a.openStorage()
				if err != nil {
					return err
				}
				defer closeStore(store, a.logger)
				token, err := endpoint.StorageTokens{Store: store}.Token(cmd.Context())
				if err != nil {
					return err
				}
				if token == "" {
					fmt.Fprintln(cmd.OutOrStdout(), "no token")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove the development token",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				store, err := a.openStorage()
				if err != nil {
					return err
				}
				defer closeStore(store, a.logger)
				if err := store.Remove(cmd.Context(), endpoint.DevTokenKey); err != nil {
					return fmt.Errorf("remove token: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "token cleared")
				return nil
			},
		},
	)
	return cmd
}

// newKeysCmd lists what the local storage holds. Values are not printed;
// the dev token and cookies are credentials.
func newKeysCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List the keys held in local storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStorage()
			if err != nil {
				return err
			}
			defer closeStore(store, a.logger)
			keys, err := store.Keys(cmd.Context())
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}
