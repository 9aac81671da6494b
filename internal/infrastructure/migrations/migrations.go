package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed sql/*.sql
var files embed.FS

const dir = "sql"

type gooseLogger struct {
	sugar *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...interface{}) { l.sugar.Infof(format, v...) }
func (l gooseLogger) Fatalf(format string, v ...interface{}) { l.sugar.Fatalf(format, v...) }

func setup(logger *zap.Logger) error {
	goose.SetBaseFS(files)
	goose.SetLogger(gooseLogger{sugar: logger.Sugar()})
	if err := goose.SetDialect("mysql"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	return nil
}

// Up applies every pending migration.
func Up(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	if err := setup(logger); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// Down rolls back the most recent migration.
func Down(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	if err := setup(logger); err != nil {
		return err
	}
	if err := goose.DownContext(ctx, db, dir); err != nil {
		return fmt.Errorf("rolling back migration: %w", err)
	}
	return nil
}

func Status(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	if err := setup(logger); err != nil {
		return err
	}
	return goose.StatusContext(ctx, db, dir)
}
