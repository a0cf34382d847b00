package docsync

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"kbchat-backend/config"
)

// Result are the counts of one sync run.
type Result struct {
	Found    int `json:"found"`
	Uploaded int `json:"uploaded"`
	Failed   int `json:"failed"`
}

// Syncer runs the full sync pipeline for configured assistants: download the
// manifest-listed documents, clear the assistant's vector store, upload and
// index the new set.
type Syncer struct {
	ai      AIClient
	fetcher *Fetcher
	runs    *RunStore
}

// NewSyncer builds a Syncer. runs may be nil when run history is not
// persisted.
func NewSyncer(ai AIClient, runs *RunStore) *Syncer {
	return &Syncer{ai: ai, fetcher: NewFetcher(), runs: runs}
}

// SyncAssistantFiles executes one sync run end to end. Documents are cleared
// from the store strictly before the new set is uploaded. The scratch
// directory is private to this run and removed afterward. Panics are
// contained here: they are logged with a stack trace and surfaced as an
// error, never past the operation boundary.
func (s *Syncer) SyncAssistantFiles(ctx context.Context, cfg config.Assistant) (res *Result, err error) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[docsync] assistant %s: sync panicked: %v\n%s", cfg.ID, r, debug.Stack())
			err = fmt.Errorf("sync assistant %s: %v", cfg.ID, r)
		}
		s.record(cfg.ID, res, err, started)
	}()

	if cfg.LLMTxtURL == "" {
		return nil, fmt.Errorf("assistant %s has no llm_txt_url configured", cfg.ID)
	}

	scratch := filepath.Join("tmp", fmt.Sprintf("sync_%s_%s", cfg.ID, uuid.NewString()[:6]))
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)
	log.Printf("[docsync] assistant %s: syncing into %s", cfg.ID, scratch)

	docs, err := s.fetcher.Download(ctx, cfg.LLMTxtURL, scratch)
	if err != nil {
		return nil, err
	}

	asst := NewAssistant(cfg.ID, s.ai)
	if err := asst.EmptyFiles(ctx); err != nil {
		return nil, fmt.Errorf("empty assistant files: %w", err)
	}

	uploaded, err := asst.CreateVectorStoreAndUpload(ctx, docs)
	res = &Result{Found: len(docs), Uploaded: uploaded, Failed: len(docs) - uploaded}
	if err != nil {
		return res, err
	}
	log.Printf("[docsync] assistant %s: sync complete: %d/%d files", cfg.ID, uploaded, len(docs))
	return res, nil
}

func (s *Syncer) record(assistantID string, res *Result, err error, started time.Time) {
	if s.runs == nil {
		return
	}
	run := Run{
		AssistantID: assistantID,
		Status:      "ok",
		StartedAt:   started,
		FinishedAt:  time.Now(),
	}
	if res != nil {
		run.FilesFound = res.Found
		run.FilesUploaded = res.Uploaded
		run.FilesFailed = res.Failed
	}
	if err != nil {
		run.Status = "failed"
		run.Error = err.Error()
	}
	s.runs.Record(run)
}
