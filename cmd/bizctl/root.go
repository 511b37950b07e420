package main

import (
	"context"
	"fmt"
	"os"

	"bizdash/internal/backend"
	"bizdash/internal/cli"
	"bizdash/internal/config"
	applog "bizdash/internal/log"
	"bizdash/internal/services"

	"github.com/spf13/cobra"
)

var (
	flagUser  string
	flagQuiet bool
)

// app holds what every subcommand needs once the backend is open.
type app struct {
	cfg      *config.Config
	logger   *applog.Logger
	backend  *backend.Backend
	projects *services.ProjectService
	dash     *services.DashboardService
	invoices *services.InvoiceService
	jobs     *services.JobService
	cats     *services.CategoryService
}

var current *app

var rootCmd = &cobra.Command{
	Use:           "bizctl",
	Short:         "Business dashboard admin tool",
	Long:          "Inspect projects, jobs and analytics, export invoices and manage access tokens.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		if current == nil {
			return nil
		}
		return current.backend.Close()
	},
}

// Execute is the main entry point called from main.go.
func Execute() {
	ctx, stop := cli.SignalContext(context.Background())
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", os.Getenv("BIZCTL_USER"), "User whose records are read")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Only log errors")
}

// open loads configuration and the backend once for the running command.
func open(ctx context.Context) (*app, error) {
	if current != nil {
		return current, nil
	}
	cli.LoadEnvFile()
	cfg, err := cli.LoadConfig()
	if err != nil {
		return nil, err
	}
	if flagQuiet {
		cfg.LogLevel = "error"
	}
	logger := cli.SetupLogger(cfg, applog.ComponentApp)

	b, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open backend: %w", err)
	}

	cats := services.NewCategoryService(b.Store, cfg.CacheSize, cfg.CacheTTL)
	current = &app{
		cfg:      cfg,
		logger:   logger,
		backend:  b,
		projects: services.NewProjectService(b.Store),
		dash:     services.NewDashboardService(b.Store, cats, nil, nil),
		invoices: services.NewInvoiceService(b.Store, nil, nil, nil),
		jobs:     services.NewJobService(b.Store, nil, nil),
		cats:     cats,
	}
	return current, nil
}

// requireUser rejects commands that read per-user records without --user.
func requireUser() error {
	if flagUser == "" {
		return fmt.Errorf("--user (or BIZCTL_USER) is required")
	}
	return nil
}
