// Package cli implements hkfctl, the operator command line for the CRM database and queue.
package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hkf/crm/config"
	"github.com/hkf/crm/pkg/database"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	DSN     string // overrides the configured database

	// loadConfig is swapped in tests.
	loadConfig func() (*config.Config, error)
}

// NewRootCommand creates the hkfctl root command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{loadConfig: config.Load})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "hkfctl",
		Short:         "Operate the HKF CRM database and notification queue",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", "", "PostgreSQL connection string (default from DATABASE_URL / DB_*)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewExecCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewCleanupCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))
	cmd.AddCommand(NewQueueCommand(opts))

	return cmd
}

func (o *RootOptions) logger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if !o.Verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func (o *RootOptions) config() (*config.Config, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.DSN != "" {
		cfg.Database.URL = o.DSN
	}
	return cfg, nil
}

func (o *RootOptions) pool(ctx context.Context, logger *zap.Logger) (*pgxpool.Pool, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}
	return database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
}
