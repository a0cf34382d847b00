package docsync

import (
	"database/sql"
	"log"
	"time"
)

// Run is one persisted sync run.
type Run struct {
	ID            int64     `json:"id"`
	AssistantID   string    `json:"assistant_id"`
	Status        string    `json:"status"`
	FilesFound    int       `json:"files_found"`
	FilesUploaded int       `json:"files_uploaded"`
	FilesFailed   int       `json:"files_failed"`
	Error         string    `json:"error,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}

// RunStore persists sync-run history to MySQL. All writes are best-effort; a
// storage hiccup must never fail a sync that already happened.
type RunStore struct {
	db *sql.DB
}

func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

func (s *RunStore) Record(run Run) {
	_, err := s.db.Exec(`
		INSERT INTO sync_runs (assistant_id, status, files_found, files_uploaded, files_failed, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.AssistantID, run.Status, run.FilesFound, run.FilesUploaded, run.FilesFailed, run.Error, run.StartedAt, run.FinishedAt)
	if err != nil {
		log.Printf("[docsync] record sync run for %s: %v", run.AssistantID, err)
	}
}

// List returns the most recent runs for an assistant, newest first.
func (s *RunStore) List(assistantID string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, assistant_id, status, files_found, files_uploaded, files_failed, error, started_at, finished_at
		FROM sync_runs
		WHERE assistant_id = ?
		ORDER BY started_at DESC
		LIMIT ?
	`, assistantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.AssistantID, &r.Status, &r.FilesFound, &r.FilesUploaded,
			&r.FilesFailed, &r.Error, &r.StartedAt, &r.FinishedAt); err != nil {
			log.Printf("[docsync] scan sync run row: %v", err)
			continue
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
