package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"petstore/internal/dbmigrate"
	"petstore/internal/platform/logger"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"
)

type flags struct {
	sqlitePath   string
	pgConnString string
	skip         []string
}

func main() {
	log := logger.NewFromEnv().With(map[string]any{"component": "migrate"})

	if err := rootCmd(log).Execute(); err != nil {
		log.Error("error during migration", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}

func rootCmd(log logger.Logger) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate data from SQLite to PostgreSQL",
		Long: "Copies every table of a SQLite database into PostgreSQL: " +
			"creates the tables and copies all rows, one transaction per table.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), f, log)
		},
	}

	cmd.Flags().StringVar(&f.sqlitePath, "sqlite-path", "", "Path to SQLite database file")
	cmd.Flags().StringVar(&f.pgConnString, "pg-conn-string", "", "PostgreSQL connection string")
	cmd.Flags().StringSliceVar(&f.skip, "skip-table", dbmigrate.DefaultSkip, "Tables to leave out (repeatable)")
	_ = cmd.MarkFlagRequired("sqlite-path")
	_ = cmd.MarkFlagRequired("pg-conn-string")

	return cmd
}

func run(ctx context.Context, f flags, log logger.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("connecting to SQLite database", map[string]any{"path": f.sqlitePath})
	src, err := dbmigrate.OpenSQLiteSource(ctx, f.sqlitePath)
	if err != nil {
		return err
	}
	defer src.Close()

	log.Info("connecting to PostgreSQL database", nil)
	conn, err := pgx.Connect(ctx, f.pgConnString)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer conn.Close(context.Background())

	_, err = dbmigrate.Run(ctx, src, conn, dbmigrate.Options{Skip: f.skip, Log: log})
	return err
}
