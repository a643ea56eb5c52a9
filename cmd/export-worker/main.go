package main

import (
	"context"
	"flag"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/backend"
	"expensetracker/internal/cli"
	"expensetracker/internal/config"
	"expensetracker/internal/log"
	"expensetracker/internal/services"
	"expensetracker/internal/worker"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "export into memory instead of Google Sheets")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentExport)
	logger.Info("Starting export-worker")

	validate := (*config.Config).ValidateExport
	if *dryRun {
		validate = (*config.Config).Validate
	}
	cfg := cli.LoadAndValidateConfig(logger, validate)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	backendCfg := backend.Config{Type: backend.MemoryBackend}
	if !*dryRun {
		var err error
		if backendCfg, err = backend.FromAppConfig(cfg); err != nil {
			logger.Error("Invalid export target configuration", "error", err)
			os.Exit(1)
		}
	}
	target, err := backend.NewLedgerWriter(ctx, backendCfg, logger.Logger)
	if err != nil {
		logger.Error("Failed to initialize export target", "error", err, "backend", backendCfg.Type)
		os.Exit(1)
	}

	exporter := services.NewExportProcessor(repo, target.Writer, services.ExportProcessorConfig{
		BatchSize:    cfg.SyncBatchSize,
		PollInterval: cfg.SyncInterval,
	})
	exportWorker := worker.NewExportWorker(exporter, cfg.SyncBatchSize)

	if err := exportWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Startup sync check failed", "error", err)
	}

	if err := exporter.Start(ctx); err != nil {
		logger.Error("Failed to start export sweep", "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	if client := cli.InitAMQP(logger, cfg); client != nil {
		defer client.Close()
		g.Go(func() error {
			return client.ConsumeLedgerCreated(gctx, exportWorker.HandleLedgerCreated)
		})
	} else {
		logger.Info("Relying on the periodic sweep only")
	}
	g.Go(func() error {
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return exporter.Stop(stopCtx)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Error("Export worker failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Export worker stopped")
}
