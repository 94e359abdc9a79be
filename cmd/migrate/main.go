package main

import (
	"fmt"
	"os"

	"quiz-assessment/internal/config"
	"quiz-assessment/internal/database"
	"quiz-assessment/internal/logger"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "migrate",
		Short:        "Apply or roll back the quiz session schema",
		SilenceUsage: true,
	}
	cmd.AddCommand(newDirectionCmd(database.Up, "Create the session tables"))
	cmd.AddCommand(newDirectionCmd(database.Down, "Drop the session tables"))
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print the embedded migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrations, err := database.Migrations(database.Up)
			if err != nil {
				return err
			}
			for _, m := range migrations {
				fmt.Fprintf(cmd.OutOrStdout(), "%04d %s\n", m.Version, m.Identifier)
			}
			return nil
		},
	})
	return cmd
}

func newDirectionCmd(dir database.Direction, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(dir),
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if err := logger.Initialize(cfg.Logger); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer logger.Sync()

			if cfg.DB.Driver == database.DriverMemory {
				return fmt.Errorf("db.driver %q has no schema to migrate", cfg.DB.Driver)
			}

			// Oracle DB 연결
			db, err := database.NewSQLXOracleDB(cfg.DB.Driver, database.DSN(cfg))
			if err != nil {
				return err
			}
			defer db.Close()

			return database.RunMigrations(cmd.Context(), db, dir)
		},
	}
}
