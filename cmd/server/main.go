// File: cmd/server/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/tm-webstudio/service4me-sub000/internal/config"
	"github.com/tm-webstudio/service4me-sub000/internal/listing"
	"github.com/tm-webstudio/service4me-sub000/internal/platform/database"
	platformElasticsearch "github.com/tm-webstudio/service4me-sub000/internal/platform/elasticsearch"
	"github.com/tm-webstudio/service4me-sub000/internal/platform/logger"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "sync-stylists" {
		syncCmd := flag.NewFlagSet("sync-stylists", flag.ExitOnError)
		syncCmd.Parse(os.Args[2:])
		runStylistSync()
		return
	}

	startServer()
}

func startServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	server, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize server: %v", err)
	}
	defer cleanup()

	if server.ESClient != nil {
		if err := platformElasticsearch.CreateStylistsIndexIfNotExists(server.ESClient, server.AppLogger); err != nil {
			server.AppLogger.Error("Failed to create Elasticsearch stylists index", zap.Error(err))
		}
	} else {
		server.AppLogger.Info("Elasticsearch client not initialized, skipping index creation.")
	}

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("FATAL: Server failed to start or crashed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("INFO: Received signal '%s'. Shutting down server...", sig)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Server forced to shutdown due to error: %v", err)
	} else {
		log.Println("INFO: Server shutdown complete.")
	}
}

// runStylistSync rebuilds the stylists search index from the database.
func runStylistSync() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration for sync: %v", err)
	}
	appLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger for sync: %v", err)
	}
	defer appLogger.Sync()

	db, err := database.NewGORM(cfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database for sync", zap.Error(err))
	}
	defer database.CloseGORMDB(db)

	esClient, err := platformElasticsearch.NewClient(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize Elasticsearch client for sync", zap.Error(err))
	}
	if esClient == nil {
		appLogger.Fatal("ELASTICSEARCH_URL must be set for sync-stylists.")
	}
	if err := platformElasticsearch.CreateStylistsIndexIfNotExists(esClient, appLogger); err != nil {
		appLogger.Fatal("Failed to create/verify stylists index before sync", zap.Error(err))
	}

	repo := listing.NewGORMRepository(db)
	service := listing.NewService(repo, esClient, nil, cfg, appLogger)

	indexed, err := service.ReindexAll(context.Background())
	if err != nil {
		appLogger.Fatal("Stylist synchronization failed", zap.Error(err))
	}
	appLogger.Info("Stylist synchronization completed", zap.Int("indexed", indexed))
}
