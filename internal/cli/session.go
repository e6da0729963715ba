package cli

import (
	"errors"
	"fmt"

	"github.com/ashureev/iwe-console/internal/endpoint"
	"github.com/ashureev/iwe-console/internal/session"
	"github.com/ashureev/iwe-console/internal/storage"
	"github.com/ashureev/iwe-console/internal/wsclient"
	"github.com/spf13/cobra"
)

func (a *app) terminalHost(cmd *cobra.Command, store storage.Storage) session.Host {
	return session.Host{
		Storage:       store,
		Cookies:       session.StorageCookies{Store: store, Logger: a.logger},
		Nav:           &session.PrintNavigator{Out: cmd.OutOrStdout(), Wait: true},
		Logger:        a.logger,
		RedirectDelay: a.redirectDelay,
	}
}

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login <username> <password>",
		Short: "Log in with the mock credentials",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStorage()
			if err != nil {
				return err
			}
			defer closeStore(store, a.logger)

			err = a.terminalHost(cmd, store).Login(cmd.Context(), args[0], args[1])
			if errors.Is(err, session.ErrInvalidCredentials) {
				return errors.New(session.InvalidCredentialsMessage)
			}
			return err
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the local session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStorage()
			if err != nil {
				return err
			}
			defer closeStore(store, a.logger)
			return a.terminalHost(cmd, store).Logout(cmd.Context())
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session and the WebSocket endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStorage()
			if err != nil {
				return err
			}
			defer closeStore(store, a.logger)

			host := a.terminalHost(cmd, store)
			ok, err := host.IsAuthenticated(cmd.Context())
			if err != nil {
				return err
			}
			resolver := a.resolver(store)
			mode, err := resolver.Mode(cmd.Context())
			if err != nil {
				return err
			}
			u, err := resolver.URL(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "logged in: %t\n", ok)
			fmt.Fprintf(out, "endpoint:  %s (%s)\n", wsclient.RedactURL(u), mode)
			if mode == endpoint.ModeAnonymous {
				fmt.Fprintf(out, "user id:   %s\n", endpoint.TestUserID())
			}
			return nil
		},
	}
}
