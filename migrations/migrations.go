package migrations

import (
	"database/sql"
	"fmt"
)

var db *sql.DB

// Init sets the DB connection for migrations
func Init(database *sql.DB) {
	db = database
}

// Migrate creates required tables if they do not exist
func Migrate() error {
	if db == nil {
		return fmt.Errorf("db is not initialized")
	}
	createSyncRuns := `
	CREATE TABLE IF NOT EXISTS sync_runs (
		id INT AUTO_INCREMENT PRIMARY KEY,
		assistant_id VARCHAR(191) NOT NULL,
		status VARCHAR(50) NOT NULL,
		files_found INT NOT NULL DEFAULT 0,
		files_uploaded INT NOT NULL DEFAULT 0,
		files_failed INT NOT NULL DEFAULT 0,
		error TEXT,
		started_at TIMESTAMP NULL,
		finished_at TIMESTAMP NULL,
		INDEX idx_sync_runs_assistant (assistant_id, started_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createSyncRuns); err != nil {
		return err
	}

	createFeedback := `
	CREATE TABLE IF NOT EXISTS chat_feedback (
		id INT AUTO_INCREMENT PRIMARY KEY,
		thread_id VARCHAR(191) NOT NULL,
		feedback_type VARCHAR(50) NOT NULL,
		score VARCHAR(50) NOT NULL DEFAULT '',
		text TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_chat_feedback_thread (thread_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createFeedback); err != nil {
		return err
	}
	return nil
}
