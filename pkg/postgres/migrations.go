package postgres

import (
	"database/sql"
	"log"
)

// migrations create the command-store schema. Permissions come first because
// users carries a foreign key onto it.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS permissions (
		name VARCHAR(20) PRIMARY KEY,
		description TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(200) NOT NULL,
		email VARCHAR(200) NOT NULL,
		description TEXT NOT NULL,
		permission VARCHAR(20) REFERENCES permissions(name),
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS users_id_email_idx ON users (id, email)`,
}

// seedPermissions holds the fixed permission rows. The set is closed; the
// seed is the only write the permissions table ever sees.
var seedPermissions = []struct {
	name        string
	description string
}{
	{"admin", "Admin is a super user to the app"},
	{"user", "User is just a client to the app"},
}

// Migrate creates the command-store schema. Safe to re-run.
func Migrate(db *sql.DB) error {
	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	log.Println("[Postgres] Migrations completed")
	return nil
}

// SeedPermissions inserts the fixed permission rows if missing. Safe to
// re-run.
func SeedPermissions(db *sql.DB) error {
	for _, p := range seedPermissions {
		_, err := db.Exec(
			"INSERT INTO permissions (name, description) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING",
			p.name, p.description,
		)
		if err != nil {
			return err
		}
	}
	log.Println("[Postgres] Permission seed completed")
	return nil
}
