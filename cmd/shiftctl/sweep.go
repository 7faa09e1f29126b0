package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/guardias-hospital/shift-manager/backend/internal/app"
	"github.com/guardias-hospital/shift-manager/backend/internal/sweeper"
)

func sweepCmd() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Escalate stale free shifts and send shift reminders",
		Long: `Escalate free shifts nobody claimed within the pending threshold and remind
doctors of their confirmed shifts ahead of time. Without --once the passes
repeat on SWEEPER_SCHEDULE until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			s := sweeper.New(rt.Lifecycle, rt.Cache, e.log, sweeper.Options{
				ReminderLead: e.cfg.Lifecycle.ReminderLead,
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if once {
				if err := s.Sweep(ctx); err != nil {
					return err
				}
				fmt.Println(ok("sweep finished"))
				return nil
			}

			e.log.Info("sweeper started", zap.String("schedule", e.cfg.Sweeper.Schedule))
			return s.Run(ctx, e.cfg.Sweeper.Schedule)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "run a single pass and exit")
	return cmd
}
