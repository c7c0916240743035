package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
)

const (
	connectAttempts = 30
	connectBackoff  = 2 * time.Second
)

// Connect establishes a connection pool to the command store, retrying while
// the database container is still coming up.
func Connect(databaseURL string) (*sql.DB, error) {
	var lastErr error

	for i := 0; i < connectAttempts; i++ {
		db, err := sql.Open("postgres", databaseURL)
		if err != nil {
			lastErr = err
			log.Printf("[Postgres] Failed to open database: %v, retrying in %s...", err, connectBackoff)
			time.Sleep(connectBackoff)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = db.PingContext(ctx)
		cancel()
		if err == nil {
			log.Println("[Postgres] Connected to PostgreSQL")
			return db, nil
		}

		lastErr = err
		db.Close()
		log.Printf("[Postgres] Failed to ping database: %v, retrying in %s...", err, connectBackoff)
		time.Sleep(connectBackoff)
	}

	return nil, fmt.Errorf("could not connect to database after %d attempts: %w", connectAttempts, lastErr)
}
