package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"storefront-backend/internal/identity"
)

// NewDevTokenCommand mints a token against the configured HMAC secret so the
// API can be exercised locally without the identity provider.
func NewDevTokenCommand(opts *RootOptions) *cobra.Command {
	var (
		uid   string
		email string
		ttl   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "dev-token",
		Short: "Mint a bearer token for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if cfg.IsProduction() {
				return errors.New("dev-token is disabled in production")
			}
			if cfg.Auth.HMACSecret == "" {
				return errors.New("dev-token needs auth.hmac_secret")
			}

			token, err := identity.IssueHMAC(cfg.Auth.HMACSecret,
				identity.User{UID: uid, Email: email, EmailVerified: true},
				cfg.Auth.TokenIssuer(), cfg.Auth.ProjectID, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&uid, "uid", "dev-user", "user id to embed in the token")
	cmd.Flags().StringVar(&email, "email", "dev@example.com", "email to embed in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")

	return cmd
}
