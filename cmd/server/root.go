package main

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mostrador/internal/config"
	"mostrador/internal/infrastructure/logger"
	"mostrador/internal/infrastructure/mysql"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "mostrador",
	Short:         "Counter order service for a small shop",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "optional YAML config file; environment variables override it")
}

// bootstrap loads configuration, builds the logger and opens the database.
func bootstrap() (*config.Config, *zap.Logger, *sql.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating logger: %w", err)
	}

	db, err := mysql.NewConnection(cfg.Database)
	if err != nil {
		_ = zapLogger.Sync()
		return nil, nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	zapLogger.Info("database connected", zap.String("host", cfg.Database.Host), zap.String("database", cfg.Database.Name))

	return cfg, zapLogger, db, nil
}
