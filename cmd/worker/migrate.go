package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/linguaflow/content-pipeline/internal/config"
	"github.com/linguaflow/content-pipeline/internal/platform/logger"
)

// migrationsDir is the path to the goose SQL migrations, relative to the
// working directory the worker is launched from.
const migrationsDir = "migrations"

// slogGooseLogger adapts the goose logger interface to use slog.
type slogGooseLogger struct{}

// Printf implements the goose.Logger Printf method by forwarding messages
// to slog.Info.
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	slog.Info(fmt.Sprintf(format, v...))
}

// Fatalf implements the goose.Logger Fatalf method by forwarding error
// messages to slog.Error. Unlike the standard Fatalf behavior, this does
// NOT call os.Exit, so main can handle application exit consistently.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	slog.Error(fmt.Sprintf(format, v...))
}

func newMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	migrateCmd.AddCommand(
		newMigrateSubcommand("up", "Apply all pending migrations", goose.Up),
		newMigrateSubcommand("down", "Roll back the most recent migration", goose.Down),
		newMigrateSubcommand("status", "Print the status of all migrations", goose.Status),
	)

	return migrateCmd
}

// newMigrateSubcommand wires one goose operation into a cobra command.
func newMigrateSubcommand(use, short string, operation func(*sql.DB, string, ...goose.OptionsFunc) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			log, err := logger.Setup(cfg.Server.LogLevel)
			if err != nil {
				return fmt.Errorf("failed to set up logger: %w", err)
			}

			db, err := openDatabase(cfg.Database.URL, log)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			goose.SetLogger(&slogGooseLogger{})
			if err := goose.SetDialect("postgres"); err != nil {
				return fmt.Errorf("failed to set goose dialect: %w", err)
			}

			if err := operation(db, migrationsDir); err != nil {
				return fmt.Errorf("migration %s failed: %w", use, err)
			}

			log.Info("migration command completed", "command", use)
			return nil
		},
	}
}
