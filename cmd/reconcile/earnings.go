package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"hrdesk-backend/internal/config"
	"hrdesk-backend/internal/db"
	"hrdesk-backend/internal/logger"
	"hrdesk-backend/internal/reconcile"
	"hrdesk-backend/internal/repository"
)

func earningsCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "earnings",
		Short: "Repair drift between completed orders and earnings",
		Long: `Compares every order with the earnings ledger and repairs the difference:
missing earnings are created, unpaid duplicates and phantoms are removed,
paid orphans are kept as legacy and unpaid gross amounts are resynced.
Paid duplicates are only reported.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEarnings(cmd.Context(), dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", true, "print the plan without writing")
	return cmd
}

func runEarnings(parent context.Context, dryRun bool) error {
	logCfg := logger.DefaultConfig()
	logCfg.Level = logLevel
	logCfg.Format = logFormat
	if err := logger.Setup(logCfg); err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	log := logger.WithComponent("reconcile")

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	pg, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pg.Close()

	r := reconcile.Reconciler{
		Orders:   repository.OrderRepository{DB: pg},
		Earnings: repository.EarningRepository{DB: pg},
		Audit:    repository.AuditRepository{DB: pg},
		Logger:   slog.New(slog.NewJSONHandler(os.Stderr, nil)).With("component", "reconcile"),
	}
	report, err := r.Run(ctx, nil, dryRun)
	if err != nil {
		return err
	}

	for _, a := range report.Plan.Actions {
		ev := log.Info().Str("kind", string(a.Kind)).Int64("earning_id", a.EarningID).
			Str("amount", a.Amount.StringFixed(2)).Str("reason", a.Reason)
		if a.OrderID != nil {
			ev = ev.Int64("order_id", *a.OrderID)
		}
		ev.Msg("planned")
	}
	for _, res := range report.Applied {
		if res.Error != "" {
			log.Error().Str("kind", string(res.Action.Kind)).Int64("earning_id", res.Action.EarningID).
				Str("error", res.Error).Msg("repair failed")
		}
	}
	log.Info().
		Bool("dry_run", report.DryRun).
		Int("planned", len(report.Plan.Actions)).
		Int("changes", report.Plan.Changes()).
		Int("applied", len(report.Applied)-report.Failed).
		Int("failed", report.Failed).
		Int("paid_duplicates", report.Plan.Count(reconcile.PaidDuplicate)).
		Msg("reconcile finished")

	if report.Failed > 0 {
		return fmt.Errorf("%d repairs failed", report.Failed)
	}
	return nil
}
