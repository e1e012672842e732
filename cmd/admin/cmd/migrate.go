package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/templui/secureshare/internal/db"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd, false)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd, true)
		},
	})
	return cmd
}

func migrate(cmd *cobra.Command, down bool) error {
	ctx := cmd.Context()
	cfg := loadConfig()

	database, err := db.Init(ctx, cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(database) }()

	if down {
		err = db.MigrateDown(ctx, database.DB, cfg.DBDriver)
	} else {
		err = db.RunMigrations(ctx, database.DB, cfg.DBDriver)
	}
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "==> Migrations done")
	return nil
}
