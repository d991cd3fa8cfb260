package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/alquemist/internal/config"
	"github.com/mamadbah2/alquemist/internal/metrics"
	"github.com/mamadbah2/alquemist/internal/repository"
	"github.com/mamadbah2/alquemist/internal/repository/memory"
	"github.com/mamadbah2/alquemist/internal/repository/mongodb"
	"github.com/mamadbah2/alquemist/internal/repository/sheets"
	"github.com/mamadbah2/alquemist/internal/scheduler"
	"github.com/mamadbah2/alquemist/internal/server/handlers"
	"github.com/mamadbah2/alquemist/internal/server/router"
	activitysvc "github.com/mamadbah2/alquemist/internal/service/activity"
	facilitysvc "github.com/mamadbah2/alquemist/internal/service/facilities"
	inventorysvc "github.com/mamadbah2/alquemist/internal/service/inventory"
	notificationsvc "github.com/mamadbah2/alquemist/internal/service/notifications"
	recipesvc "github.com/mamadbah2/alquemist/internal/service/recipes"
	reportingsvc "github.com/mamadbah2/alquemist/internal/service/reporting"
	whatsappclient "github.com/mamadbah2/alquemist/pkg/clients/whatsapp"
	"github.com/mamadbah2/alquemist/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	store, err := openStore(cfg.Storage, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to init storage", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close storage", zap.Error(err))
		}
	}()

	var sheetsRepo sheets.Repository
	if cfg.Sheets.Enabled() {
		repo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sheetsRepo = repo
	} else {
		baseLogger.Warn("google sheets not configured, exports disabled")
	}

	var (
		alerter recipesvc.StockAlerter
		sender  scheduler.ReportSender
	)
	if cfg.WhatsApp.Enabled() {
		notifier := notificationsvc.NewService(whatsappclient.NewClient(cfg.WhatsApp), cfg.WhatsApp.AlertRecipient, baseLogger.Named("svc.notifications"))
		alerter, sender = notifier, notifier
		baseLogger.Info("whatsapp notifications enabled")
	} else {
		baseLogger.Warn("whatsapp token missing, notifications disabled")
	}

	m := metrics.New()

	facilities := facilitysvc.NewService(store, baseLogger.Named("svc.facilities"))
	inventory := inventorysvc.NewService(store, m, baseLogger.Named("svc.inventory"))
	recipes := recipesvc.NewService(store, alerter, m, baseLogger.Named("svc.recipes"))
	activities := activitysvc.NewService(store.Activities(), baseLogger.Named("svc.activity"))
	reporting := reportingsvc.NewService(store, inventory, sheetsRepo, baseLogger.Named("svc.reporting"))

	engine := router.New(router.Handlers{
		Facilities: handlers.NewFacilityHandler(facilities, inventory, reporting, baseLogger.Named("handlers.facilities")),
		Inventory:  handlers.NewInventoryHandler(inventory, baseLogger.Named("handlers.inventory")),
		Recipes:    handlers.NewRecipeHandler(recipes, baseLogger.Named("handlers.recipes")),
		Activities: handlers.NewActivityHandler(activities, baseLogger.Named("handlers.activities")),
	}, m, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(cfg.Reporting, inventory, facilities, reporting, sender, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("storage", cfg.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
	sched.Stop(shutdownCtx)
}

func openStore(cfg config.StorageConfig, log *zap.Logger) (repository.Store, error) {
	if cfg.Driver == config.StorageMemory {
		log.Warn("using in-memory storage, data is lost on restart")
		return memory.NewStore(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoTimeout)
	defer cancel()
	store, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoURI, cfg.MongoDBName, log.Named("repo.mongodb"))
	if err != nil {
		return nil, err
	}
	return store, nil
}
