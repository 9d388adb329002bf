package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"fleetops/incident-portal/incident-portal-backend/internal/analytics"
	"fleetops/incident-portal/incident-portal-backend/internal/auth"
	"fleetops/incident-portal/incident-portal-backend/internal/cases"
	"fleetops/incident-portal/incident-portal-backend/internal/config"
	"fleetops/incident-portal/incident-portal-backend/internal/export"
	"fleetops/incident-portal/incident-portal-backend/internal/ledger"
	"fleetops/incident-portal/incident-portal-backend/internal/notifications"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load("config.json")
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	dbURL := cfg.Database.GetDatabaseURL()
	sqlxDB, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer sqlxDB.Close()
	sqlxDB.SetMaxOpenConns(cfg.Database.MaxConnections)
	sqlxDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlxDB.DB}), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to open gorm connection", zap.Error(err))
	}
	if err := gormDB.AutoMigrate(&cases.Case{}); err != nil {
		logger.Fatal("Failed to migrate case schema", zap.Error(err))
	}

	hub := notifications.NewHub(logger)
	ledgerRepo := ledger.NewPostgresRepository(sqlxDB)
	caseRepo := cases.NewGormRepository(gormDB)

	ledgerService := ledger.NewService(ledgerRepo, caseRepo, logger)
	caseService := cases.NewService(caseRepo, ledgerService, logger)
	ledgerService.AttachSink(ledger.MultiSink{hub, cases.NewCloser(caseService, logger)})

	ledgerHandler := ledger.NewHandler(ledgerService, logger)
	caseHandler := cases.NewHandler(caseService, logger)
	analyticsHandler := analytics.NewHandler(ledgerService, caseService,
		analytics.DefaultReporterRules(), logger)
	exportHandler := export.NewHandler(ledgerService, caseService,
		analytics.DefaultReporterRules(), logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(auth.Middleware(cfg.Security.JWTSecret))

	api := router.Group("/api/v1")
	{
		caseHandler.RegisterRoutes(api)
		ledgerHandler.RegisterRoutes(api)
		analyticsHandler.RegisterRoutes(api)
		exportHandler.RegisterRoutes(api)
	}

	router.GET("/ws", func(c *gin.Context) {
		if err := hub.HandleConnection(c.Writer, c.Request); err != nil {
			logger.Warn("Websocket upgrade failed", zap.Error(err))
		}
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()
	logger.Info("Server started", zap.String("addr", srv.Addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exiting")
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Cache-Control")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
