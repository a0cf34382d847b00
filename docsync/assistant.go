package docsync

import (
	"context"
	"log"

	"kbchat-backend/openai"
)

// Expiry windows for the assistant's vector store, in days, anchored on last
// activity. A store retained through a clear gets the long window; a freshly
// created store starts with the short one.
const (
	retainedExpiryDays = 30
	freshExpiryDays    = 7
)

// AIClient is the slice of the OpenAI client the sync pipeline consumes.
// Declared here so tests can substitute a fake.
type AIClient interface {
	AssistantVectorStoreIDs(ctx context.Context, assistantID string) ([]string, error)
	SetAssistantVectorStore(ctx context.Context, assistantID, vsID string) error

	CreateVectorStore(ctx context.Context, name string, expiresDays int) (openai.VectorStoreInfo, error)
	RetrieveVectorStore(ctx context.Context, vsID string) (openai.VectorStoreInfo, error)
	UpdateVectorStore(ctx context.Context, vsID, name string, expiresDays int) error
	DeleteVectorStore(ctx context.Context, vsID string) error

	ListVectorStoreFiles(ctx context.Context, vsID, statusFilter string) ([]openai.VectorStoreFileInfo, error)
	DeleteVectorStoreFile(ctx context.Context, vsID, fileID string) error
	CreateFileBatchAndPoll(ctx context.Context, vsID string, fileIDs []string) (openai.BatchResult, error)

	UploadFile(ctx context.Context, path, purpose string) (string, error)
	DeleteFile(ctx context.Context, fileID string) error
}

// Assistant manages the vector store lifecycle of one remote assistant. An
// assistant is meant to own exactly one store, named after it; anything else
// is a transient state this type consolidates away.
type Assistant struct {
	ID    string
	Topic string
	ai    AIClient
}

func NewAssistant(id string, ai AIClient) *Assistant {
	return &Assistant{ID: id, Topic: id + "_vector_store", ai: ai}
}

// VectorStoreIDs returns the stores attached to the assistant. Discovery
// failures (including a missing file_search capability) are logged and yield
// an empty list; there is nothing to clear in that case.
func (a *Assistant) VectorStoreIDs(ctx context.Context) []string {
	ids, err := a.ai.AssistantVectorStoreIDs(ctx, a.ID)
	if err != nil {
		log.Printf("[docsync] assistant %s: fetch vector stores: %v", a.ID, err)
		return nil
	}
	return ids
}

// EmptyFiles clears every file from the assistant's canonical vector store so
// a fresh document set can be uploaded. Extra stores are deleted (the
// first-listed one wins as canonical). Per-file deletion failures are
// accumulated, not fatal: if any file could not be deleted, was still
// processing, or the store had expired, the whole store is deleted instead of
// being left half-cleared. Only unexpected remote errors are returned.
func (a *Assistant) EmptyFiles(ctx context.Context) error {
	storeIDs := a.VectorStoreIDs(ctx)
	if len(storeIDs) == 0 {
		log.Printf("[docsync] assistant %s has no vector store to clear", a.ID)
		return nil
	}
	for _, extra := range storeIDs[1:] {
		if err := a.ai.DeleteVectorStore(ctx, extra); err != nil {
			log.Printf("[docsync] assistant %s: delete extra vector store %s: %v — delete it manually and re-sync", a.ID, extra, err)
		} else {
			log.Printf("[docsync] assistant %s: deleted extra vector store %s", a.ID, extra)
		}
	}
	vsID := storeIDs[0]

	files, err := a.ai.ListVectorStoreFiles(ctx, vsID, "")
	if err != nil {
		return err
	}

	processing := false
	for _, f := range files {
		if f.Status == openai.FileStatusInProgress {
			processing = true
			break
		}
	}

	var failedStoreFiles, failedBlobs []string
	for _, f := range files {
		if err := a.ai.DeleteVectorStoreFile(ctx, vsID, f.ID); err != nil {
			log.Printf("[docsync] assistant %s: delete file %s from store %s: %v", a.ID, f.ID, vsID, err)
			failedStoreFiles = append(failedStoreFiles, f.ID)
		}
		if err := a.ai.DeleteFile(ctx, f.ID); err != nil {
			log.Printf("[docsync] assistant %s: delete storage file %s: %v", a.ID, f.ID, err)
			failedBlobs = append(failedBlobs, f.ID)
		}
	}

	vs, err := a.ai.RetrieveVectorStore(ctx, vsID)
	if err != nil {
		return err
	}
	expired := vs.Status == openai.VectorStoreStatusExpired
	if !expired {
		if err := a.ai.UpdateVectorStore(ctx, vsID, a.Topic, retainedExpiryDays); err != nil {
			return err
		}
	}

	successCount := len(files) - len(failedStoreFiles)

	// A mid-processing file cannot be deleted individually, and an expired or
	// partially-cleared store cannot be trusted to hold a consistent document
	// set. Destroy the store outright in those cases.
	if processing || len(failedStoreFiles) > 0 || len(failedBlobs) > 0 || expired {
		log.Printf("[docsync] assistant %s: store %s has processing or undeletable files, deleting the whole store", a.ID, vsID)
		if err := a.ai.DeleteVectorStore(ctx, vsID); err != nil {
			log.Printf("[docsync] assistant %s: delete vector store %s: %v — delete it manually and re-sync", a.ID, vsID, err)
		} else {
			successCount = len(files)
		}
	}

	log.Printf("[docsync] assistant %s: cleared files %d/%d", a.ID, successCount, len(files))
	return nil
}
