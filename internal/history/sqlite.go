package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite connection. A single open connection serialises writers.
type DB struct {
	conn *sql.DB
}

// Open creates the database file if needed and applies the schema.
func Open(dbPath string) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS predictions (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		total_calories INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS prediction_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		prediction_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		label TEXT NOT NULL,
		confidence REAL NOT NULL DEFAULT 0,
		calories_per_100g INTEGER,
		FOREIGN KEY (prediction_id) REFERENCES predictions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions(created_at);
	CREATE INDEX IF NOT EXISTS idx_prediction_items_prediction_id ON prediction_items(prediction_id);
	`

	_, err := db.conn.Exec(schema)
	return err
}

func (db *DB) Close() error {
	return db.conn.Close()
}
