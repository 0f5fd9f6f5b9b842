package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"pennywise/internal/advisory"
	"pennywise/internal/cache"
	"pennywise/internal/cli"
	"pennywise/internal/core"
	apphttp "pennywise/internal/http"
	"pennywise/internal/log"
	"pennywise/internal/services"
)

const minJWTSecretLength = 32

func main() {
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentApp)

	if len(cfg.JWTSecret) < minJWTSecretLength {
		logger.Error("JWT_SECRET must be set to at least 32 characters")
		os.Exit(1)
	}

	ctx, cancel := cli.ShutdownContext(logger)
	defer cancel()

	res := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	// A nil *amqp.Client must not end up inside a non-nil interface.
	var publisher services.ExportPublisher
	if res.AMQP != nil {
		publisher = res.AMQP
	} else {
		logger.Info("AMQP disabled - transactions wait for the worker's periodic sweep")
	}

	categoryCache := cache.NewLRUCache[[]core.Category](16, 10*time.Minute)
	caches := cache.NewManager()
	caches.Register("categories", categoryCache)

	categories := services.NewCategoryService(res.Stores.Categories, categoryCache)
	if n, err := categories.SeedFromFile(ctx, cfg.CategorySeedFile); err != nil {
		logger.Error("Failed to seed categories", "error", err, "file", cfg.CategorySeedFile)
		os.Exit(1)
	} else if n > 0 {
		logger.Info("Seeded categories", "count", n)
	}

	dashboard := services.NewDashboardService(res.Stores.Transactions, res.Stores.Quota, advisory.DefaultQuota)

	generator, err := advisory.NewGenerator(ctx, cfg.AdviceProvider, cfg.AdviceAPIKey, cfg.AdviceModel, cfg.AdviceBaseURL)
	if err != nil {
		logger.Error("Failed to initialize advice generator", "error", err, "provider", cfg.AdviceProvider)
		os.Exit(1)
	}
	if advisory.IsPlaceholderCredential(cfg.AdviceAPIKey) {
		logger.Warn("Advice API key is not configured - advice requests will report a configuration error",
			"provider", cfg.AdviceProvider)
	}
	gate := advisory.NewGate(res.Stores.Quota, res.Stores.Transactions, dashboard, generator, advisory.Config{
		Quota:     advisory.DefaultQuota,
		MaxTokens: cfg.AdviceMaxTokens,
		Timeout:   cfg.AdviceTimeout,
		Currency:  cfg.Currency,
	})

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Services{
		Transactions: services.NewTransactionService(res.Stores.Transactions, publisher),
		Budgets:      services.NewBudgetService(res.Stores.Budgets, res.Stores.Transactions),
		Dashboard:    dashboard,
		Goals:        services.NewGoalService(res.Stores.Goals),
		Categories:   categories,
		Advisor:      gate,
		Ping:         res.Stores.Ping,
	}, apphttp.Options{
		JWTSecret:          cfg.JWTSecret,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
		RequestTimeout:     cfg.AdviceTimeout + 10*time.Second,
	})

	// Request bodies are capped per handler; cap headers here.
	srv.ReadTimeout = 10 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting pennywise server",
			"port", cfg.Port,
			"data_backend", cfg.DataBackend,
			"quota_backend", cfg.QuotaBackend,
			"advice_provider", cfg.AdviceProvider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return caches.Run(gctx, 5*time.Minute)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
