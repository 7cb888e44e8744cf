package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/liliang-cn/docchat/internal/api"
	"github.com/liliang-cn/docchat/internal/config"
	"github.com/liliang-cn/docchat/internal/service"
	"go.uber.org/zap"
)

var (
	configPath = flag.String("config", "", "Path to config file")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Initialize services
	pdfService, err := service.NewPDFService(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize PDF service", zap.Error(err))
	}

	responseService := service.NewResponseService(cfg, logger)

	// Setup router
	router := api.SetupRouter(responseService, pdfService, logger, api.RouterConfig{
		AllowOrigins: cfg.CORS.AllowOrigins,
	})

	// Create HTTP server. WriteTimeout stays zero: SSE streams outlive any
	// fixed write deadline.
	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting DocChat server",
			zap.String("address", cfg.Address()),
			zap.String("base_url", cfg.Server.BaseURL),
			zap.String("pdf_directory", cfg.Storage.PDFs),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
