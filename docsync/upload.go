package docsync

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"kbchat-backend/openai"
)

const (
	maxIndexAttempts  = 3
	batchSize         = 100
	uploadConcurrency = 5

	// The remote side indexes batches asynchronously and the submit call
	// blocks until terminal status; without a deadline a stuck batch would
	// block the sync forever.
	batchPollTimeout = 10 * time.Minute
)

// CreateVectorStoreAndUpload makes sure the assistant has exactly one vector
// store attached, creating one when needed, then uploads and indexes docs
// into it. Returns the number of files successfully indexed.
func (a *Assistant) CreateVectorStoreAndUpload(ctx context.Context, docs []Document) (int, error) {
	storeIDs := a.VectorStoreIDs(ctx)
	switch {
	case len(storeIDs) == 0:
		vs, err := a.ai.CreateVectorStore(ctx, a.Topic, freshExpiryDays)
		if err != nil {
			return 0, err
		}
		if err := a.ai.SetAssistantVectorStore(ctx, a.ID, vs.ID); err != nil {
			return 0, err
		}
		storeIDs = []string{vs.ID}
	case len(storeIDs) > 1:
		if err := a.ai.SetAssistantVectorStore(ctx, a.ID, storeIDs[0]); err != nil {
			return 0, err
		}
	}
	return a.UploadFiles(ctx, docs, storeIDs[0])
}

// UploadFiles pushes docs to remote storage and registers them into the
// vector store in batches, retrying failed files up to maxIndexAttempts
// times. The upload stage is all-or-nothing; a batch reported as anything but
// completed is fatal. Returns the number of files successfully indexed.
func (a *Assistant) UploadFiles(ctx context.Context, docs []Document, vsID string) (int, error) {
	log.Printf("[docsync] assistant %s: uploading %d files to vector store %s", a.ID, len(docs), vsID)

	fileIDs, err := a.uploadBlobs(ctx, docs)
	if err != nil {
		return 0, err
	}

	total := len(fileIDs)
	successful := 0
	for attempt := 0; attempt < maxIndexAttempts && len(fileIDs) > 0; attempt++ {
		for i := 0; i < len(fileIDs); i += batchSize {
			end := min(i+batchSize, len(fileIDs))
			bctx, cancel := context.WithTimeout(ctx, batchPollTimeout)
			batch, err := a.ai.CreateFileBatchAndPoll(bctx, vsID, fileIDs[i:end])
			cancel()
			if err != nil {
				return successful, err
			}
			if batch.Status != openai.BatchStatusCompleted {
				return successful, fmt.Errorf("assistant %s: batch %d stopped with status %q (%d/%d indexed), aborting upload",
					a.ID, i/batchSize+1, batch.Status, batch.Completed, batch.Total)
			}
			successful += batch.Completed
			log.Printf("[docsync] assistant %s: batch %d indexed: completed=%d failed=%d total=%d",
				a.ID, i/batchSize+1, batch.Completed, batch.Failed, batch.Total)
		}
		log.Printf("[docsync] assistant %s: attempt %d: indexed %d/%d files", a.ID, attempt+1, successful, total)

		// A completed batch can still leave individual files in failed
		// status; the post-hoc listing decides what gets retried.
		var retryIDs []string
		failed, err := a.ai.ListVectorStoreFiles(ctx, vsID, openai.FileStatusFailed)
		if err != nil {
			log.Printf("[docsync] assistant %s: list failed files in %s: %v", a.ID, vsID, err)
		}
		for _, f := range failed {
			retryIDs = append(retryIDs, f.ID)
		}

		if len(retryIDs) == 0 && successful == total {
			log.Printf("[docsync] assistant %s: all %d files indexed", a.ID, total)
			return successful, nil
		}

		if attempt == maxIndexAttempts-1 {
			break
		}
		log.Printf("[docsync] assistant %s: %d files failed to index, starting attempt %d", a.ID, total-successful, attempt+2)
		// Failed entries must leave the store before resubmission or the next
		// batch would register duplicates. The backing storage blobs stay.
		for _, id := range retryIDs {
			if err := a.ai.DeleteVectorStoreFile(ctx, vsID, id); err != nil {
				log.Printf("[docsync] assistant %s: delete failed entry %s from store %s: %v", a.ID, id, vsID, err)
			}
		}
		fileIDs = retryIDs
	}

	return successful, fmt.Errorf("assistant %s: %d of %d files failed to index after %d attempts",
		a.ID, total-successful, total, maxIndexAttempts)
}

// uploadBlobs uploads every document to remote storage with a bounded worker
// pool. The first failure cancels outstanding work and fails the stage;
// indexing never starts on a partial upload.
func (a *Assistant) uploadBlobs(ctx context.Context, docs []Document) ([]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan Document)
	results := make(chan string, len(docs))
	errc := make(chan error, uploadConcurrency)

	var wg sync.WaitGroup
	for w := 0; w < uploadConcurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for doc := range jobs {
				id, err := a.ai.UploadFile(ctx, doc.Path, openai.PurposeAssistants)
				if err != nil {
					select {
					case errc <- fmt.Errorf("upload %s: %w", doc.Path, err):
					default:
					}
					cancel()
					return
				}
				results <- id
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, doc := range docs {
			select {
			case jobs <- doc:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	close(results)
	close(errc)

	if err := <-errc; err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(docs))
	for id := range results {
		ids = append(ids, id)
	}
	if len(ids) != len(docs) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("uploaded %d of %d files", len(ids), len(docs))
	}
	return ids, nil
}
