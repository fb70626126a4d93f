package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/daysense/daysense-api/internal/config"
	"github.com/daysense/daysense-api/internal/database"
	"github.com/daysense/daysense-api/internal/logger"
	"github.com/daysense/daysense-api/internal/queue"
	"github.com/daysense/daysense-api/internal/services/ai"
	"github.com/daysense/daysense-api/internal/workers"
)

func main() {
	// Parse command-line flags
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override debug mode if flag is set
	debugMode := cfg.WorkerDebugMode || *debugFlag

	// Initialize logger
	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		if syncErr := zapLogger.Sync(); syncErr != nil {
			// Ignore sync errors in production
			_ = syncErr
		}
	}()

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.String("ai_provider", cfg.AIProvider),
		zap.String("ai_model", cfg.AIModel),
		zap.Int("reflection_hour", cfg.ReflectionHour),
	)

	// Initialize database connection
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()

	zapLogger.Info("connected_to_database")

	// Initialize repositories
	taskRepo := database.NewTaskRepository(db)
	energyRepo := database.NewEnergyEntryRepository(db)
	flowRepo := database.NewFlowScoreRepository(db)
	profileRepo := database.NewProfileRepository(db)
	reflectionRepo := database.NewReflectionRepository(db)
	userRepo := database.NewUserRepository(db)
	signalRepo := database.NewSignalSnapshotRepository(db)

	// Initialize RabbitMQ queue
	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	zapLogger.Info("connected_to_rabbitmq",
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

	// Create the remote narration provider. Without an API key the reflector
	// runs fallback-only; that is a degraded mode, not an error.
	var remoteProvider ai.NarrationProvider
	if cfg.GroqAPIKey != "" {
		remoteProvider = ai.NewGroqProviderWithLogger(
			cfg.GroqAPIKey,
			cfg.AIBaseURL,
			cfg.AIModel,
			zapLogger,
			debugMode,
		)
		zapLogger.Info("initialized_narration_provider",
			zap.String("provider", cfg.AIProvider),
			zap.String("model", cfg.AIModel),
		)
	} else {
		zapLogger.Warn("no_groq_api_key_reflections_use_fallback")
	}

	// Create the reflection worker
	reflector := workers.NewReflector(
		remoteProvider,
		taskRepo,
		energyRepo,
		flowRepo,
		reflectionRepo,
		profileRepo,
		signalRepo,
		jobQueue,
	)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Schedule the nightly reflection fan-out: once at startup for the next
	// reflection hour, then re-scheduled daily shortly after it fires.
	scheduler := workers.NewScheduler(jobQueue, userRepo, zapLogger)
	scheduler.SetReflectionHour(cfg.ReflectionHour)

	if err := scheduler.ScheduleDailyReflections(ctx); err != nil {
		zapLogger.Error("failed_to_schedule_reflections", zap.Error(err))
	}

	scheduleCron := cron.New()
	cronSpec := fmt.Sprintf("30 %d * * *", cfg.ReflectionHour)
	if _, err := scheduleCron.AddFunc(cronSpec, func() {
		if err := scheduler.ScheduleDailyReflections(ctx); err != nil {
			zapLogger.Error("failed_to_schedule_reflections", zap.Error(err))
		}
	}); err != nil {
		zapLogger.Fatal("failed_to_register_reflection_schedule", zap.Error(err))
	}
	scheduleCron.Start()
	defer scheduleCron.Stop()

	// Start consuming messages
	msgChan, errChan, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming", zap.Error(err))
	}

	zapLogger.Info("worker_started")

	// Process messages
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgChan:
				if !ok {
					zapLogger.Info("message_channel_closed")
					return
				}

				// Process job
				if err := reflector.ProcessJob(ctx, msg); err != nil {
					zapLogger.Error("failed_to_process_job",
						zap.Error(err),
						zap.String("job_id", msg.GetJob().ID.String()),
						zap.String("job_type", string(msg.GetJob().Type)),
					)
				}
			}
		}
	}()

	// Handle errors
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errChan:
				if !ok {
					return
				}
				zapLogger.Error("queue_error", zap.Error(err))
			}
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	zapLogger.Info("shutdown_signal_received")

	// Cancel context to stop processing
	cancel()

	zapLogger.Info("worker_stopped")
}
