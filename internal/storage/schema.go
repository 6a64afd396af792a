package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema version tracking
const currentSchemaVersion = 1

// initializeSchema creates all tables for a new database
func (db *DB) initializeSchema() error {
	return db.WithTx(context.Background(), func(tx *sql.Tx) error {
		if err := createSchemaVersionTable(tx); err != nil {
			return err
		}
		if err := createSessionsTable(tx); err != nil {
			return err
		}
		if err := createDocumentsTable(tx); err != nil {
			return err
		}
		if err := createEntitiesTables(tx); err != nil {
			return err
		}
		if err := setSchemaVersion(tx, currentSchemaVersion); err != nil {
			return err
		}

		db.logger.Info("Database schema initialized", "version", currentSchemaVersion)
		return nil
	})
}

// runMigrations runs any pending schema migrations
func (db *DB) runMigrations() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return err
	}

	switch {
	case version == currentSchemaVersion:
		db.logger.Debug("Database schema is up to date", "version", version)
		return nil
	case version == 0:
		// file exists but was never initialized
		return db.initializeSchema()
	case version > currentSchemaVersion:
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	db.logger.Info("Running database migrations",
		"from_version", version,
		"to_version", currentSchemaVersion,
	)
	return nil
}

// getSchemaVersion gets the current schema version
func (db *DB) getSchemaVersion() (int, error) {
	var tableName string
	err := db.conn.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableName)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var version int
	err = db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}

func setSchemaVersion(tx *sql.Tx, version int) error {
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

func createSchemaVersionTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	return err
}

// createSessionsTable creates one row per load session
func createSessionsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			autosar INTEGER NOT NULL CHECK(autosar IN (3, 4)),
			created_at TEXT NOT NULL,
			entity_count INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create sessions table: %w", err)
	}
	if _, err := tx.Exec("CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at)"); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// createDocumentsTable creates the source documents of each session
func createDocumentsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			session_id TEXT NOT NULL,
			ordinal INTEGER NOT NULL,
			name TEXT NOT NULL,
			encoding TEXT NOT NULL,
			digest TEXT NOT NULL,
			size INTEGER NOT NULL,

			PRIMARY KEY (session_id, ordinal),
			FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}
	if _, err := tx.Exec("CREATE INDEX IF NOT EXISTS idx_documents_digest ON documents(digest)"); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// createEntitiesTables creates the entity snapshot table and its name index
func createEntitiesTables(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS entities (
			session_id TEXT NOT NULL,
			path TEXT NOT NULL,
			kind TEXT NOT NULL,
			name TEXT NOT NULL,
			parent TEXT NOT NULL,
			ordinal INTEGER NOT NULL,
			projection_json TEXT NOT NULL,

			PRIMARY KEY (session_id, path),
			FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create entities table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_entities_kind ON entities(session_id, kind)",
		"CREATE INDEX IF NOT EXISTS idx_entities_parent ON entities(session_id, parent)",
	}
	for _, indexSQL := range indexes {
		if _, err := tx.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	_, err = tx.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS entities_fts USING fts5(
			name,
			session_id UNINDEXED,
			path UNINDEXED,
			kind UNINDEXED
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create entities_fts table: %w", err)
	}
	return nil
}
