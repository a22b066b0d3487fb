package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/esign/pkg/logger"
	"github.com/turtacn/esign/sdk/go/esign"
)

// newTokenCommand fetches an access token through the configured token manager.
func newTokenCommand(root *rootOptions) *cobra.Command {
	var refresh, reveal bool

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Fetch the access token of the configured app",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, root, func(ctx context.Context, client *esign.Client) error {
				token, err := client.Tokens.AccessToken(ctx, refresh)
				if err != nil {
					return err
				}
				value := token.Value
				if !reveal {
					value = logger.MaskString(value)
				}
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"appId":     token.AppID,
					"token":     value,
					"expiresAt": token.ExpiresAt.Format(time.RFC3339),
					"fetchedAt": token.FetchedAt.Format(time.RFC3339),
				})
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass cached tokens")
	cmd.Flags().BoolVar(&reveal, "reveal", false, "print the full token instead of a masked prefix")
	return cmd
}
