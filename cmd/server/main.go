package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/svattam/sewer-server/internal/alerting"
	"github.com/svattam/sewer-server/internal/api"
	"github.com/svattam/sewer-server/internal/dashboard"
	"github.com/svattam/sewer-server/internal/database"
	"github.com/svattam/sewer-server/internal/ingest"
	"github.com/svattam/sewer-server/internal/queue"
	"github.com/svattam/sewer-server/internal/session"
	"github.com/svattam/sewer-server/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	fmt.Println("Starting Sewer Monitoring Server...")

	// Connect to database
	db, err := database.Connect(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	fmt.Println("Connected to database")

	// Run migrations
	if err := db.RunMigrations("migrations"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Connect to Redis (session store)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	fmt.Println("Connected to Redis")

	sessions := session.NewManager(redisClient, cfg.Auth.SessionTTL)

	// Alert fan-out producer (optional)
	var publisher ingest.Publisher
	if cfg.Kafka.Enabled {
		if err := queue.CreateTopic(cfg.Kafka.Brokers, cfg.Kafka.TopicAlerts, 1, 1); err != nil {
			fmt.Printf("Note: Topic creation failed (may already exist): %v\n", err)
		}

		producer := queue.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicAlerts)
		defer producer.Close()
		publisher = producer
		fmt.Println("Alert event producer initialized")
	} else {
		fmt.Println("Kafka disabled, alert fan-out off")
	}

	// Wire the ingestion and dashboard pipelines
	engine := alerting.NewEngine(cfg.Threshold)
	coordinator := ingest.NewCoordinator(db, engine, publisher)
	aggregator := dashboard.NewAggregator(db, cfg.Dashboard)

	handler := api.NewHandler(coordinator, aggregator, db, sessions, cfg.Auth)
	router := api.NewRouter(handler, cfg.HTTP.StaticDir)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	fmt.Println("\n✓ Sewer Monitoring Server is running")
	fmt.Printf("✓ HTTP server listening on port %d\n", cfg.HTTP.Port)
	fmt.Println("✓ Press Ctrl+C to stop")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nShutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	fmt.Println("Sewer Monitoring Server stopped")
}
