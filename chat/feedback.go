package chat

import (
	"database/sql"
	"log"
)

// Feedback is a thumbs-style rating of one assistant response.
type Feedback struct {
	ThreadID string `json:"thread_id"`
	Type     string `json:"type"`
	Score    string `json:"score"`
	Text     string `json:"text"`
}

// FeedbackStore persists user feedback to MySQL. Writes are best-effort; a
// lost rating is acceptable, a failed chat response is not.
type FeedbackStore struct {
	db *sql.DB
}

func NewFeedbackStore(db *sql.DB) *FeedbackStore {
	return &FeedbackStore{db: db}
}

func (s *FeedbackStore) Save(f Feedback) {
	_, err := s.db.Exec(`
		INSERT INTO chat_feedback (thread_id, feedback_type, score, text)
		VALUES (?, ?, ?, ?)
	`, f.ThreadID, f.Type, f.Score, f.Text)
	if err != nil {
		log.Printf("[chat] save feedback for thread %s: %v", f.ThreadID, err)
	}
}
