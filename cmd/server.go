package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"example.com/backstage/services/ledger/api"
	"example.com/backstage/services/ledger/cache"
	"example.com/backstage/services/ledger/eventstore"
	"example.com/backstage/services/ledger/handlers"
	"example.com/backstage/services/ledger/locks"
	"example.com/backstage/services/ledger/messaging"
	"example.com/backstage/services/ledger/models"
	"example.com/backstage/services/ledger/projections"
	"example.com/backstage/services/ledger/reports"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the ledger service",
	Run:   runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func runServer(cmd *cobra.Command, args []string) {
	log.Info().Msg("Starting server")

	db, err := gorm.Open(postgres.Open(cfg.DBSource), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	if cfg.EnableMigrations {
		if err := db.AutoMigrate(&models.Event{}, &models.Transaction{}); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate database")
		}
	}

	cacheClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Redis")
	}

	eventStore := eventstore.NewGormEventStore(db)
	transactionStore := projections.NewGormTransactionStore(db)
	reportStore := reports.NewGormReportStore(db)
	keyLocks := locks.NewKeyedMutex(cfg.LockShardCount)

	projector := projections.NewTransactionProjector(eventStore, transactionStore, cacheClient)
	eventHandler := handlers.NewEventHandler(eventStore, projector, keyLocks)

	consumerCtx, stopConsumers := context.WithCancel(context.Background())
	defer stopConsumers()

	reconciler := projections.NewReconciler(transactionStore, projector, keyLocks, cfg.ReconcilerInterval)

	// Background processing can be switched off to run the service in
	// query-only mode.
	if cfg.BackgroundProcessingEnabled {
		azureClient, err := messaging.NewAzureClient(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Azure Service Bus")
		}

		msgProcessor := messaging.NewProcessor(eventHandler)

		go func() {
			if err := azureClient.StartConsumers(consumerCtx, cfg.QueueName, msgProcessor, cfg.QueueWorkerCount); err != nil {
				log.Fatal().Err(err).Msg("Failed to start queue consumers")
			}
		}()

		reconciler.Start()
	} else {
		log.Info().Msg("Background processing disabled, running in query-only mode")
	}

	server := api.NewServer(cfg, transactionStore, reportStore, cacheClient)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	stopConsumers()
	if cfg.BackgroundProcessingEnabled {
		reconciler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
