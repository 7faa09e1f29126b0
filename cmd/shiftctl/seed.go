package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/guardias-hospital/shift-manager/backend/internal/app"
	"github.com/guardias-hospital/shift-manager/backend/internal/database"
	"github.com/guardias-hospital/shift-manager/backend/internal/repository"
	"github.com/guardias-hospital/shift-manager/backend/internal/seed"
)

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert sample doctors or import a shift roster",
	}
	cmd.AddCommand(seedDoctorsCmd(), seedShiftsCmd())
	return cmd
}

func seedDoctorsCmd() *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "doctors",
		Short: "Insert random doctors sharing the seed password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := load()
			if err != nil {
				return err
			}
			defer e.log.Sync()

			if !cmd.Flags().Changed("count") {
				n = e.cfg.Seed.Doctors
			}

			db, err := database.Open(e.cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			repo := repository.NewRepository(e.cfg, db)
			created, err := seed.Doctors(cmd.Context(), repo, n, e.cfg.Seed.User.Password, e.cfg.Email.UserDomain, e.log)
			if err != nil {
				return err
			}
			fmt.Printf("%s %d of %d doctors\n", ok("created"), created, n)
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "count", "n", 0, "number of doctors (default SEED_DOCTORS)")
	return cmd
}

func seedShiftsCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "shifts",
		Short: "Import a shift roster from CSV",
		Long: `Import a shift roster from CSV. The header must name at least the
date and category columns; doctor, area, hours, pool, recurring_until and
notes are optional. Shifts are created on behalf of the initial admin and
trigger the same notifications as the API.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			e, err := load()
			if err != nil {
				return err
			}
			defer e.log.Sync()

			rt, err := app.Open(e.cfg, e.log)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := cmd.Context()
			admin, err := seed.EnsureInitialAdmin(ctx, rt.Repo, e.cfg)
			if err != nil {
				return err
			}

			res, err := seed.ImportRoster(ctx, f, rt.Repo, rt.Lifecycle, admin.Actor(), e.log)
			if res != nil {
				fmt.Printf("%s %d shifts from %d rows\n", ok("created"), res.Created, res.Rows)
				if res.Failed > 0 {
					fmt.Printf("%s %d rows, see the log for details\n", warn("skipped"), res.Failed)
				}
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV roster to import")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
