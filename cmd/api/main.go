package main

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"club-recon/internal/config"
	"club-recon/internal/handler"
	"club-recon/internal/matcher"
	"club-recon/internal/middleware"
	"club-recon/internal/repository"
	"club-recon/internal/service"
	"club-recon/pkg/logger"
)

// @title Club Ledger Reconciliation API
// @version 1.0
// @description API for reconciling imported bank transactions against club events, expense claims and member registrations

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.App.LogLevel)
	logger.GetLogger().Info("Starting Club Ledger Reconciliation Service")

	db, err := connectDB(cfg.Database)
	if err != nil {
		logger.GetLogger().WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	logger.GetLogger().Info("Database connection established")

	// Repositories
	linkRepo := repository.NewLinkRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db, linkRepo)
	candidateRepo := repository.NewCandidateRepository(db)

	// Matching engine
	weights := buildWeights(cfg.Matching)
	engine := matcher.NewEngine(&weights)

	// Services
	txService := service.NewTransactionService(ledgerRepo)
	importService := service.NewImportService(ledgerRepo, cfg.App.BatchSize)
	matchingService := service.NewMatchingService(ledgerRepo, candidateRepo, linkRepo, engine)
	linkService := service.NewLinkService(ledgerRepo, linkRepo)
	splitService := service.NewSplitService(ledgerRepo)

	// Handlers
	txHandler := handler.NewTransactionHandler(txService, linkService)
	reconHandler := handler.NewReconciliationHandler(importService, matchingService, linkService, splitService)

	router := setupRouter(txHandler, reconHandler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.GetLogger().WithField("address", addr).Info("Server starting")

	if err := router.Run(addr); err != nil {
		logger.GetLogger().WithError(err).Fatal("Failed to start server")
	}
}

func connectDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

func buildWeights(cfg config.MatchingConfig) matcher.Weights {
	w := matcher.DefaultWeights()
	if cfg.AmountWeight > 0 {
		w.Amount = cfg.AmountWeight
	}
	if cfg.DateWeight > 0 {
		w.Date = cfg.DateWeight
	}
	if cfg.NameWeight > 0 {
		w.Name = cfg.NameWeight
	}
	if cfg.KeywordBonus > 0 {
		w.KeywordBonus = cfg.KeywordBonus
	}
	if cfg.AutoThreshold > 0 {
		w.AutoThreshold = cfg.AutoThreshold
	}
	if cfg.MinimumFloor > 0 {
		w.MinimumFloor = cfg.MinimumFloor
	}
	if cfg.SplitMargin > 0 {
		w.SplitMargin = cfg.SplitMargin
	}
	if cfg.DateWindowDays > 0 {
		w.DateWindowDays = cfg.DateWindowDays
	}
	return w
}

func setupRouter(txHandler *handler.TransactionHandler, reconHandler *handler.ReconciliationHandler) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/imports", reconHandler.ImportStatements)
		v1.GET("/matches", reconHandler.ProposeMatches)

		transactions := v1.Group("/transactions")
		{
			transactions.GET("", txHandler.ListTransactions)
			transactions.GET("/:id", txHandler.GetTransaction)
			transactions.GET("/:id/children", txHandler.GetChildren)
			transactions.PATCH("/:id", txHandler.ClassifyTransaction)
			transactions.POST("/:id/status", txHandler.CycleStatus)
			transactions.POST("/:id/links", reconHandler.AcceptLink)
			transactions.DELETE("/:id/links/:entityId", reconHandler.RemoveLink)
			transactions.POST("/:id/split", reconHandler.CommitSplit)
			transactions.DELETE("/:id/split", reconHandler.DeleteChild)
		}
	}

	return router
}
