package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pixvault/pix-image-service/config"
	"github.com/pixvault/pix-image-service/consumer/worker"
	infraPkg "github.com/pixvault/pix-image-service/infra"
	"github.com/pixvault/pix-image-service/repository"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, continuing with environment variables")
	}

	cfg := config.NewConfig()
	infra := infraPkg.InitInfra(cfg)
	repo := repository.InitRepository(infra)

	// Initialize context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start Thumbnail Consumer (fan-out jobs: image created, height created, repair)
	thumbnailConsumer := worker.NewThumbnailConsumer(infra.RabbitMQ.Channel, infra, repo)
	if err := thumbnailConsumer.Start(ctx); err != nil {
		infra.Logger.ErrorWithContextf(ctx, err, "Failed to start Thumbnail consumer: %v", err)
		log.Fatalf("Failed to start Thumbnail consumer: %v", err)
	}

	// Start Cleanup Consumer (orphaned blob deletion)
	cleanupConsumer := worker.NewCleanupConsumer(infra.RabbitMQ.Channel, infra, repo)
	if err := cleanupConsumer.Start(ctx); err != nil {
		infra.Logger.ErrorWithContextf(ctx, err, "Failed to start Cleanup consumer: %v", err)
		log.Fatalf("Failed to start Cleanup consumer: %v", err)
	}

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	infra.Logger.InfoWithContextf(ctx, "Shutting down consumer...")
	cancel() // Cancel context to stop consumers

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	infra.Telemetry.Shutdown(shutdownCtx)
	infra.RabbitMQ.Close()

	infra.Logger.InfoWithContextf(ctx, "Consumer exited properly")
}
