package mongodb

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	connectAttempts = 30
	connectBackoff  = 2 * time.Second
)

// Connect establishes a client to the query store, retrying while the
// database container is still coming up.
func Connect(uri string) (*mongo.Client, error) {
	var lastErr error

	for i := 0; i < connectAttempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err == nil {
			err = client.Ping(ctx, readpref.Primary())
		}
		cancel()

		if err == nil {
			log.Println("[MongoDB] Connected to MongoDB")
			return client, nil
		}

		lastErr = err
		if client != nil {
			_ = client.Disconnect(context.Background())
		}
		log.Printf("[MongoDB] Failed to connect: %v, retrying in %s...", err, connectBackoff)
		time.Sleep(connectBackoff)
	}

	return nil, fmt.Errorf("could not connect to MongoDB after %d attempts: %w", connectAttempts, lastErr)
}
