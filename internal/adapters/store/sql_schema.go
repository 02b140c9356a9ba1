package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the Postgres schema backing SQLDocumentStore and SQLSnapshotCache.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createDocumentsQuery := `
	CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		data JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (collection, id)
	);
	`

	createSnapshotCacheQuery := `
	CREATE TABLE IF NOT EXISTS snapshot_cache (
		cache_key TEXT PRIMARY KEY,
		version TEXT NOT NULL,
		fetched_at TIMESTAMPTZ NOT NULL,
		payload JSONB NOT NULL
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_documents_collection_updated
	ON documents(collection, updated_at DESC);
	`

	statements := []string{
		createDocumentsQuery,
		createSnapshotCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
