package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/cache"
	"expensetracker/internal/cli"
	"expensetracker/internal/config"
	apphttp "expensetracker/internal/http"
	"expensetracker/internal/log"
	"expensetracker/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	logger.Info("Starting expensetracker API")

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateAPI)
	loc := cli.Location(logger, cfg)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// A nil interface keeps the ledger service from publishing at all
	var publisher services.LedgerPublisher
	if client := cli.InitAMQP(logger, cfg); client != nil {
		defer client.Close()
		publisher = client
	}

	stats := services.NewStatsService(repo, cfg.CacheTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(stats.Cache())
	if cfg.CacheTTL > 0 {
		cacheManager.StartCleanup(cfg.CacheTTL)
	}
	defer cacheManager.Stop()

	notifications := services.NewNotificationService(repo)
	ledger := services.NewLedgerService(repo, publisher, stats)

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Services{
		Auth:          services.NewAuthService(repo, cfg.JWTSecret, cfg.JWTTTL),
		Ledger:        ledger,
		Categories:    services.NewCategoryService(repo, notifications, stats),
		Goals:         services.NewGoalService(repo, ledger, notifications),
		Notifications: notifications,
		Stats:         stats,
		Recurring:     services.NewRecurringProcessor(repo, ledger, notifications),
	}, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Location:           loc,
		Ready:              repo.Ping,
		Logger:             logger,
	})
	if err != nil {
		logger.Error("Failed to create HTTP server", "error", err)
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
