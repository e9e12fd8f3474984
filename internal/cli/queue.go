package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hkf/crm/pkg/queue"
	"github.com/hkf/crm/pkg/redis"
)

// NewQueueCommand creates the queue command.
func NewQueueCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect the notification queue",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "depth",
		Short: "Print pending and dead-lettered notification jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			logger := opts.logger()
			defer logger.Sync()
			ctx := cmd.Context()
			rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
			if err != nil {
				return err
			}
			defer rdb.Close()
			pending, dead, err := queue.NewQueue(rdb.Client, logger).Depth(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pending %d\ndead    %d\n", pending, dead)
			return nil
		},
	})
	return cmd
}
