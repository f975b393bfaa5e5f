package migrations

import (
	"log"

	"github.com/jmoiron/sqlx"
)

// Run creates the schema for the collection store. Collections are
// position-ordered JSON documents; settings holds scalars such as the
// current user.
func Run(db *sqlx.DB) {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS records (
            collection TEXT NOT NULL,
            position INTEGER NOT NULL,
            record_id TEXT NOT NULL,
            payload TEXT NOT NULL,
            PRIMARY KEY (collection, position)
        );`,
		`CREATE INDEX IF NOT EXISTS idx_records_record_id ON records (collection, record_id);`,
		`CREATE TABLE IF NOT EXISTS settings (
            key TEXT PRIMARY KEY,
            value TEXT NOT NULL
        );`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
	}
}
