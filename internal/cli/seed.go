package cli

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hkf/crm/internal/organizations"
	"github.com/hkf/crm/internal/seed"
)

func parseOrg(raw string, required bool) (uuid.UUID, error) {
	if raw == "" {
		if required {
			return uuid.Nil, fmt.Errorf("--org is required")
		}
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --org %q: %w", raw, err)
	}
	return id, nil
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(opts *RootOptions) *cobra.Command {
	var org string
	cmd := &cobra.Command{
		Use:   "seed <fixture.yaml>",
		Short: "Load a YAML fixture into an organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orgID, err := parseOrg(org, false)
			if err != nil {
				return err
			}
			b, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			f, err := seed.Parse(b)
			if err != nil {
				return err
			}
			logger := opts.logger()
			defer logger.Sync()
			pool, err := opts.pool(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer pool.Close()
			sum, err := seed.Apply(cmd.Context(), pool, orgID, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "organization %s: %d programs, %d people, %d enrollments, %d events\n",
				sum.OrganizationID, sum.Programs, sum.People, sum.Enrollments, sum.Events)
			return nil
		},
	}
	cmd.Flags().StringVar(&org, "org", "", "organization id (created from the fixture when omitted)")
	return cmd
}

// NewCleanupCommand creates the cleanup command.
func NewCleanupCommand(opts *RootOptions) *cobra.Command {
	var org string
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete all CRM data of an organization, keeping the organization and its members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			orgID, err := parseOrg(org, true)
			if err != nil {
				return err
			}
			logger := opts.logger()
			defer logger.Sync()
			pool, err := opts.pool(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer pool.Close()
			org, err := organizations.NewRepository(pool).GetByID(cmd.Context(), orgID)
			if err != nil {
				return err
			}
			removed, err := seed.Cleanup(cmd.Context(), pool, orgID)
			if err != nil {
				return err
			}
			var total int64
			for _, n := range removed {
				total += n
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d rows from %s (%s)\n", total, org.Name, orgID)
			return nil
		},
	}
	cmd.Flags().StringVar(&org, "org", "", "organization id")
	return cmd
}
