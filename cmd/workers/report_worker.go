package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"fleetops/incident-portal/incident-portal-backend/internal/analytics"
	"fleetops/incident-portal/incident-portal-backend/internal/cases"
	"fleetops/incident-portal/incident-portal-backend/internal/config"
	"fleetops/incident-portal/incident-portal-backend/internal/export"
	"fleetops/incident-portal/incident-portal-backend/internal/ledger"
)

// ReportWorker generates the periodic fleet report and writes the
// Excel artifact to the delivery directory for managers to pick up.
type ReportWorker struct {
	lister  analytics.CaseLister
	history analytics.HistorySource
	cfg     config.ReportsConfig
	rules   analytics.ReporterRules
	logger  *zap.Logger
}

// Run builds one fleet report over the configured window.
func (w *ReportWorker) Run(ctx context.Context) error {
	now := time.Now()
	window := analytics.ReportWindow{
		Start: now.AddDate(0, 0, -w.cfg.WindowDays),
		End:   now,
	}

	report, err := analytics.BuildReportOverCases(ctx, w.lister, w.history, window, now, w.rules)
	if err != nil {
		return fmt.Errorf("failed to build fleet report: %w", err)
	}

	if err := os.MkdirAll(w.cfg.DeliveryDir, 0o755); err != nil {
		return fmt.Errorf("failed to create delivery dir: %w", err)
	}
	path := filepath.Join(w.cfg.DeliveryDir,
		fmt.Sprintf("fleet-report-%s.xlsx", now.Format("2006-01-02")))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	if err := export.ExcelFleetReport(report, f); err != nil {
		return err
	}

	w.logger.Info("Fleet report generated",
		zap.String("path", path),
		zap.Int("total_cases", report.TotalCases),
		zap.Int("completed_cases", report.CompletedCases),
		zap.Int("recommendations", len(report.Recommendations)))
	for _, rec := range report.Recommendations {
		w.logger.Info("Fleet recommendation",
			zap.String("type", string(rec.Type)),
			zap.String("message", rec.Message))
	}
	return nil
}

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load("config.json")
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	sqlxDB, err := sqlx.Connect("postgres", cfg.Database.GetDatabaseURL())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer sqlxDB.Close()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlxDB.DB}), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to open gorm connection", zap.Error(err))
	}

	ledgerRepo := ledger.NewPostgresRepository(sqlxDB)
	caseRepo := cases.NewGormRepository(gormDB)
	ledgerService := ledger.NewService(ledgerRepo, caseRepo, logger)
	caseService := cases.NewService(caseRepo, ledgerService, logger)

	worker := &ReportWorker{
		lister:  caseService,
		history: ledgerService,
		cfg:     cfg.Reports,
		rules:   analytics.DefaultReporterRules(),
		logger:  logger,
	}

	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Reports.CronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := worker.Run(ctx); err != nil {
			logger.Error("Fleet report run failed", zap.Error(err))
		}
	})
	if err != nil {
		logger.Fatal("Invalid report cron spec",
			zap.String("spec", cfg.Reports.CronSpec), zap.Error(err))
	}

	scheduler.Start()
	logger.Info("Report worker started", zap.String("cron_spec", cfg.Reports.CronSpec))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx := scheduler.Stop()
	<-ctx.Done()
	logger.Info("Report worker exiting")
}
