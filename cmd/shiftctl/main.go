package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/guardias-hospital/shift-manager/backend/internal/config"
	"github.com/guardias-hospital/shift-manager/backend/internal/logger"
)

var (
	ok   = color.New(color.FgGreen).SprintFunc()
	warn = color.New(color.FgYellow).SprintFunc()
	fail = color.New(color.FgRed).SprintFunc()
)

// env bundles what every subcommand needs before touching a backend.
type env struct {
	cfg *config.Config
	log *zap.Logger
}

func load() (*env, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return &env{cfg: cfg, log: log}, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "shiftctl",
		Short:         "Operations tool for the guardia shift manager",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(sweepCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, fail("error:"), err)
		os.Exit(1)
	}
}
