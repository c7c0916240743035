package main

import (
	"log"

	"github.com/viniciusfeitosa/europython2018/pkg/config"
	"github.com/viniciusfeitosa/europython2018/pkg/postgres"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[Migrate] Creating command-store schema...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Migrate] Failed to load config: %v", err)
	}

	db, err := postgres.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[Migrate] Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	if err := postgres.Migrate(db); err != nil {
		log.Fatalf("[Migrate] Failed to run migrations: %v", err)
	}
	if err := postgres.SeedPermissions(db); err != nil {
		log.Fatalf("[Migrate] Failed to seed permissions: %v", err)
	}

	log.Println("[Migrate] Done")
}
