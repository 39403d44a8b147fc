package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/mamadbah2/dairy-dashboard/internal/config"
	"github.com/mamadbah2/dairy-dashboard/internal/repository/mongodb"
	"github.com/mamadbah2/dairy-dashboard/internal/repository/sheets"
	"github.com/mamadbah2/dairy-dashboard/internal/repository/snapshot"
	"github.com/mamadbah2/dairy-dashboard/internal/scheduler"
	"github.com/mamadbah2/dairy-dashboard/internal/server/handlers"
	"github.com/mamadbah2/dairy-dashboard/internal/server/router"
	dashboardsvc "github.com/mamadbah2/dairy-dashboard/internal/service/dashboard"
	"github.com/mamadbah2/dairy-dashboard/internal/service/kpi"
	"github.com/mamadbah2/dairy-dashboard/internal/service/loader"
	reportingsvc "github.com/mamadbah2/dairy-dashboard/internal/service/reporting"
	whatsappsvc "github.com/mamadbah2/dairy-dashboard/internal/service/whatsapp"
	whatsappclient "github.com/mamadbah2/dairy-dashboard/pkg/clients/whatsapp"
	"github.com/mamadbah2/dairy-dashboard/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogMode))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	thresholds, err := kpi.LoadThresholds(cfg.Data.ThresholdsFile)
	if err != nil {
		baseLogger.Fatal("failed to load kpi thresholds", zap.Error(err))
	}

	snapshotRepo, err := snapshot.NewParquetRepository(cfg.Data.ProcessedDir, baseLogger.Named("repo.snapshot"))
	if err != nil {
		baseLogger.Fatal("failed to init snapshot repository", zap.Error(err))
	}

	evaluator := kpi.NewEvaluator(thresholds, baseLogger.Named("svc.kpi"))
	cache := loader.NewCache(baseLogger.Named("svc.loader"))
	dashboardSvc := dashboardsvc.NewService(evaluator, cache, baseLogger.Named("svc.dashboard"),
		dashboardsvc.WithSnapshots(snapshotRepo))

	if err := dashboardSvc.RestoreSnapshot(context.Background()); err != nil {
		baseLogger.Warn("failed to restore snapshot, starting empty", zap.Error(err))
	}

	var reportingOpts []reportingsvc.Option

	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		reportingOpts = append(reportingOpts, reportingsvc.WithSheets(sheetsRepo, cfg.Sheets))
	} else {
		baseLogger.Warn("google sheet id missing, sheets sync disabled")
	}

	if cfg.MongoDB.Enabled() {
		mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		reportingOpts = append(reportingOpts, reportingsvc.WithReportStore(mongoRepo))
	} else {
		baseLogger.Warn("mongodb uri missing, evaluation history disabled")
	}

	var messagingSvc whatsappsvc.MessagingService
	if cfg.WhatsApp.Enabled() {
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		metaSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, baseLogger.Named("svc.whatsapp"))
		messagingSvc = metaSvc
		reportingOpts = append(reportingOpts, reportingsvc.WithNotifier(metaSvc))
		baseLogger.Info("whatsapp field team digest enabled")
	} else {
		baseLogger.Warn("whatsapp token missing, field team digest disabled")
	}

	reportingSvc := reportingsvc.NewService(dashboardSvc, baseLogger.Named("svc.reporting"), reportingOpts...)

	dashboardHandler := handlers.NewDashboardHandler(dashboardSvc, reportingSvc, messagingSvc, baseLogger.Named("handlers.dashboard"))
	engine := router.New(dashboardHandler, cfg.Server.AllowedOrigins, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(*cfg, dashboardSvc, reportingSvc, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
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

	if err := dashboardSvc.PersistSnapshot(shutdownCtx); err != nil {
		baseLogger.Error("failed to persist snapshot on shutdown", zap.Error(err))
	}
}
