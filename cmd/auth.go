package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"workspacemcp/internal/google"
)

// newAuthCmd creates the auth command for the file-token flow used by
// the STDIO transport. HTTP transports authenticate through the OAuth
// endpoints instead.
func newAuthCmd() *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize a Google account for the STDIO transport",
		Long: `Authorize a Google account and store the OAuth token on disk.

Opens no browser: the authorization URL is printed, and the resulting
code is read from stdin. Requires GOOGLE_CLIENT_ID and
GOOGLE_CLIENT_SECRET in the environment.

Tokens are stored per account, so multiple accounts can be authorized
under different names (e.g. --account work).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("Visit the following URL to authorize account %q:\n\n%s\n\n", account, google.GetAuthURLForAccount(account))
			fmt.Print("Enter the authorization code: ")

			reader := bufio.NewReader(os.Stdin)
			code, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("failed to read authorization code: %w", err)
			}
			code = strings.TrimSpace(code)
			if code == "" {
				return fmt.Errorf("no authorization code provided")
			}

			if err := google.SaveTokenForAccount(cmd.Context(), account, code); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			fmt.Printf("Token saved for account %q\n", account)
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", google.DefaultAccount, "Account name to store the token under")

	return cmd
}
