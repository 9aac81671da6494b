package main

import (
	"github.com/spf13/cobra"

	"mostrador/internal/infrastructure/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

func init() {
	for _, sub := range []struct {
		use, short string
		run        func(cmd *cobra.Command) error
	}{
		{"up", "Apply all pending migrations", runMigrateUp},
		{"down", "Roll back the most recent migration", runMigrateDown},
		{"status", "Print the migration status", runMigrateStatus},
	} {
		run := sub.run
		migrateCmd.AddCommand(&cobra.Command{
			Use:   sub.use,
			Short: sub.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd)
			},
		})
	}
	rootCmd.AddCommand(migrateCmd)
}

func runMigrateUp(cmd *cobra.Command) error {
	_, zapLogger, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer db.Close()
	defer zapLogger.Sync()

	return migrations.Up(cmd.Context(), db, zapLogger)
}

func runMigrateDown(cmd *cobra.Command) error {
	_, zapLogger, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer db.Close()
	defer zapLogger.Sync()

	return migrations.Down(cmd.Context(), db, zapLogger)
}

func runMigrateStatus(cmd *cobra.Command) error {
	_, zapLogger, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer db.Close()
	defer zapLogger.Sync()

	return migrations.Status(cmd.Context(), db, zapLogger)
}
