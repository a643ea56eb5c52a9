package main

import (
	"context"
	"flag"
	"os"

	"expensetracker/internal/cli"
	"expensetracker/internal/config"
	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/services"
	"expensetracker/internal/worker"
)

func main() {
	date := flag.String("date", "", "evaluate recurring rules once for this yyyy-mm-dd date and exit")
	once := flag.Bool("once", false, "evaluate recurring rules once for today and exit")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentRecurring)
	logger.Info("Starting recurring-worker")

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)
	loc := cli.Location(logger, cfg)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// Auto transactions are announced like any other entry so the export
	// worker picks them up
	var publisher services.LedgerPublisher
	if client := cli.InitAMQP(logger, cfg); client != nil {
		defer client.Close()
		publisher = client
	}

	notifications := services.NewNotificationService(repo)
	ledger := services.NewLedgerService(repo, publisher, nil)
	processor := services.NewRecurringProcessor(repo, ledger, notifications)

	scheduler, err := worker.NewRecurringScheduler(processor, cfg.RecurringSchedule, loc)
	if err != nil {
		logger.Error("Failed to create recurring scheduler", "error", err)
		os.Exit(1)
	}

	if *date != "" || *once {
		today := scheduler.Today()
		if *date != "" {
			d, err := core.ParseISODate(*date)
			if err != nil {
				logger.Error("Invalid --date, want yyyy-mm-dd", "error", err, "date", *date)
				os.Exit(1)
			}
			today = d
		}
		if _, err := scheduler.RunOnce(context.Background(), today); err != nil {
			logger.Error("Recurring run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	// Catch up on start so a restart after the scheduled minute still fires
	if _, err := scheduler.RunOnce(ctx, scheduler.Today()); err != nil {
		logger.Error("Initial recurring run failed", "error", err)
	}

	scheduler.Start(ctx)
	logger.Info("Recurring worker stopped")
}
