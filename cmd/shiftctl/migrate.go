package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guardias-hospital/shift-manager/backend/internal/database"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := load()
			if err != nil {
				return err
			}
			defer e.log.Sync()

			db, err := database.Open(e.cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.RunMigrations(db, e.log); err != nil {
				return err
			}
			fmt.Println(ok("migrations applied"))
			return nil
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps <= 0 {
				return fmt.Errorf("--steps must be positive, got %d", steps)
			}
			e, err := load()
			if err != nil {
				return err
			}
			defer e.log.Sync()

			db, err := database.Open(e.cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.RollbackMigrations(db, steps, e.log); err != nil {
				return err
			}
			fmt.Println(warn(fmt.Sprintf("rolled back %d migration(s)", steps)))
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	return cmd
}
