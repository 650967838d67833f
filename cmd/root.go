package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/graphmail/internal/config"
)

// rootCmd represents the base command for the graphmail application
var rootCmd = &cobra.Command{
	Use:   "graphmail",
	Short: "Read and send Outlook mail through Microsoft Graph",
	Long: `graphmail is a command-line client for Outlook.com and Microsoft 365 mail.

On first use it opens a browser to sign in and stores the refresh token it
receives, so later runs authenticate silently. Credentials are read from
APPLICATION_ID and CLIENT_SECRET, either in the environment or in a .env file.`,
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
	rootCmd.SetVersionTemplate(`{{printf "graphmail version %s\n" .Version}}`)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newInboxCmd())
	rootCmd.AddCommand(newAllCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newSendCmd())
	rootCmd.AddCommand(newReplyCmd())
	rootCmd.AddCommand(newDraftCmd())
	rootCmd.AddCommand(newSendDraftCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newMoveCmd())
	rootCmd.AddCommand(newDownloadAttachCmd())
	rootCmd.AddCommand(newCreateFolderCmd())
	rootCmd.AddCommand(newFoldersCmd())

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newWhoamiCmd())
	rootCmd.AddCommand(newVersionCmd())
}
