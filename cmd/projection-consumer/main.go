package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/viniciusfeitosa/europython2018/internal/projection"
	"github.com/viniciusfeitosa/europython2018/internal/viewstore"
	"github.com/viniciusfeitosa/europython2018/pkg/config"
	"github.com/viniciusfeitosa/europython2018/pkg/models"
	"github.com/viniciusfeitosa/europython2018/pkg/mongodb"
	"github.com/viniciusfeitosa/europython2018/pkg/rabbitmq"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[Projection] Starting projection-consumer...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Projection] Failed to load config: %v", err)
	}

	// Query store
	mongoClient, err := mongodb.Connect(cfg.MongoURL)
	if err != nil {
		log.Fatalf("[Projection] Failed to connect to MongoDB: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())

	views := viewstore.New(mongoClient.Database(cfg.MongoDB))

	// Event bus
	rmqConn, err := rabbitmq.Connect(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("[Projection] Failed to connect to RabbitMQ: %v", err)
	}
	defer rmqConn.Close()

	handler := projection.NewHandler(views)
	handler.StoreTimeout = cfg.StoreTimeout

	consumerCfg := rabbitmq.ConsumerConfig{
		QueueName: "projections.user.events",
		DLQName:   "dlq.projections.user.events",
		RoutingKeys: []string{
			string(models.EventUserCreated),
			string(models.EventPermissionUserRelated),
		},
		ConsumerName: "projection-consumer",
	}

	if err := rabbitmq.SetupConsumer(rmqConn, consumerCfg, handler.HandleMessage); err != nil {
		log.Fatalf("[Projection] Failed to setup consumer: %v", err)
	}

	log.Println("[Projection] Consumer is running. Waiting for messages...")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[Projection] Shutting down...")
}
