package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/viniciusfeitosa/europython2018/internal/api"
	"github.com/viniciusfeitosa/europython2018/internal/command"
	"github.com/viniciusfeitosa/europython2018/internal/query"
	"github.com/viniciusfeitosa/europython2018/internal/viewstore"
	"github.com/viniciusfeitosa/europython2018/pkg/config"
	"github.com/viniciusfeitosa/europython2018/pkg/mongodb"
	"github.com/viniciusfeitosa/europython2018/pkg/postgres"
	"github.com/viniciusfeitosa/europython2018/pkg/rabbitmq"
)

// @title           CQRS User API
// @version         1.0
// @description     Splits user writes (PostgreSQL + RabbitMQ events) from reads (MongoDB projections). Reads may lag writes by design.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[API] Starting api-service...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[API] Failed to load config: %v", err)
	}

	// Command store
	db, err := postgres.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[API] Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	if err := postgres.Migrate(db); err != nil {
		log.Fatalf("[API] Failed to run migrations: %v", err)
	}
	if err := postgres.SeedPermissions(db); err != nil {
		log.Fatalf("[API] Failed to seed permissions: %v", err)
	}

	// Query store
	mongoClient, err := mongodb.Connect(cfg.MongoURL)
	if err != nil {
		log.Fatalf("[API] Failed to connect to MongoDB: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())

	views := viewstore.New(mongoClient.Database(cfg.MongoDB))

	// Event bus
	rmqConn, err := rabbitmq.Connect(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("[API] Failed to connect to RabbitMQ: %v", err)
	}
	defer rmqConn.Close()

	publisher, err := rabbitmq.NewPublisher(rmqConn)
	if err != nil {
		log.Fatalf("[API] Failed to create publisher: %v", err)
	}
	defer publisher.Close()

	// Services and router
	commands := command.NewService(db, publisher)
	commands.PublishTimeout = cfg.PublishTimeout
	queries := query.NewService(views)

	handler := api.NewUserHandler(commands, queries)
	router := api.NewRouter(handler)

	// HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: router,
	}

	go func() {
		log.Printf("[API] Listening on port %s", cfg.APIPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[API] Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[API] Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("[API] Server forced to shutdown: %v", err)
	}
	log.Println("[API] Server exited gracefully")
}
