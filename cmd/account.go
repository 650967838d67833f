package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/graphmail/internal/logging"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in through the browser and store a new refresh token",
		Long: `Sign in through the browser even when a refresh token is already stored.
Use this to switch accounts or after revoking the application's access.`,
		Args: cobra.NoArgs,
		RunE: withSession(runLogin),
	}
}

func runLogin(ctx context.Context, s *session, _ []string) error {
	ts, err := s.tokenSource()
	if err != nil {
		return err
	}

	if _, err := ts.Login(ctx); err != nil {
		s.reportTokenFailure(err)
		return fmt.Errorf("failed to get token: %w", err)
	}
	fmt.Fprintln(s.out, "Login successful.")
	return nil
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored refresh token",
		Args:  cobra.NoArgs,
		RunE:  withSession(runLogout),
	}
}

func runLogout(_ context.Context, s *session, _ []string) error {
	if err := s.store.Delete(); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Logged out.")
	return nil
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE:  withSession(runWhoami),
	}
}

func runWhoami(ctx context.Context, s *session, _ []string) error {
	client, err := s.graphClient(ctx)
	if err != nil {
		return err
	}

	user, err := client.Me(ctx)
	if err != nil {
		return s.reportAPIError("fetching profile", err)
	}

	address := user.Mail
	if address == "" {
		address = user.UserPrincipalName
	}
	s.logger.Debug("signed in", logging.UserHash(address))
	fmt.Fprintf(s.out, "Signed in as %s <%s>\n", user.DisplayName, address)
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of graphmail",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "graphmail version %s\n", version)
		},
	}
}
