package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hkf/crm/pkg/database"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply embedded schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if list {
				names, err := database.MigrationNames()
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Fprintln(cmd.OutOrStdout(), n)
				}
				return nil
			}
			logger := opts.logger()
			defer logger.Sync()
			pool, err := opts.pool(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := database.Migrate(cmd.Context(), pool, logger); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations up to date")
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "print embedded migration names without connecting")
	return cmd
}

// NewExecCommand creates the exec command, which runs raw SQL files in order.
func NewExecCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <file.sql>...",
		Short: "Execute SQL files against the database",
		Long: `Execute one or more SQL files in the order given. Each file is sent as a
single batch; execution stops at the first failing file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scripts := make([]string, len(args))
			for i, path := range args {
				b, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				scripts[i] = string(b)
			}
			logger := opts.logger()
			defer logger.Sync()
			pool, err := opts.pool(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer pool.Close()
			for i, sql := range scripts {
				if err := database.ExecFile(cmd.Context(), pool, sql); err != nil {
					return fmt.Errorf("%s: %w", args[i], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok  %s\n", args[i])
			}
			return nil
		},
	}
}
