package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hkf/crm/internal/auth"
)

// NewTokenCommand creates the token command, which signs a provider-shaped access
// token for local testing against JWT_SECRET.
func NewTokenCommand(opts *RootOptions) *cobra.Command {
	var user, email string
	var hours int
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a development access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			userID := uuid.New()
			if user != "" {
				if userID, err = uuid.Parse(user); err != nil {
					return fmt.Errorf("invalid --user: %w", err)
				}
			}
			if hours <= 0 {
				hours = cfg.JWT.ExpireHours
			}
			token, err := auth.NewJWTService(cfg.JWT.Secret, hours).Generate(userID, email)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id (random when omitted)")
	cmd.Flags().StringVar(&email, "email", "dev@example.com", "email claim")
	cmd.Flags().IntVar(&hours, "hours", 0, "lifetime in hours (default JWT_EXPIRE_HOURS)")
	return cmd
}
