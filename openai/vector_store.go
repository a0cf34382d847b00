package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Vector store and indexed-file statuses as reported by the API.
const (
	VectorStoreStatusExpired = "expired"

	FileStatusInProgress = "in_progress"
	FileStatusCompleted  = "completed"
	FileStatusFailed     = "failed"

	BatchStatusCompleted = "completed"
)

// ExpiresAnchorLastActive anchors a store's expiry window on its last activity.
const ExpiresAnchorLastActive = "last_active_at"

const listPageSize = 100

var batchPollInterval = 2 * time.Second

// VectorStoreInfo is the subset of vector-store state the sync pipeline needs.
type VectorStoreInfo struct {
	ID     string
	Name   string
	Status string
}

// VectorStoreFileInfo describes one file registered into a vector store.
type VectorStoreFileInfo struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// BatchResult is the terminal state of an indexing batch.
type BatchResult struct {
	Status     string
	Completed  int
	InProgress int
	Failed     int
	Cancelled  int
	Total      int
}

// CreateVectorStore creates a store with an expiry window of expiresDays
// anchored on last activity.
func (c *Client) CreateVectorStore(ctx context.Context, name string, expiresDays int) (VectorStoreInfo, error) {
	vs, err := c.api.CreateVectorStore(ctx, openai.VectorStoreRequest{
		Name: name,
		ExpiresAfter: &openai.VectorStoreExpires{
			Anchor: ExpiresAnchorLastActive,
			Days:   expiresDays,
		},
	})
	if err != nil {
		return VectorStoreInfo{}, fmt.Errorf("create vector store %q: %w", name, err)
	}
	return VectorStoreInfo{ID: vs.ID, Name: vs.Name, Status: vs.Status}, nil
}

// RetrieveVectorStore fetches a store's current state.
func (c *Client) RetrieveVectorStore(ctx context.Context, vsID string) (VectorStoreInfo, error) {
	vs, err := c.api.RetrieveVectorStore(ctx, vsID)
	if err != nil {
		return VectorStoreInfo{}, fmt.Errorf("retrieve vector store %s: %w", vsID, err)
	}
	return VectorStoreInfo{ID: vs.ID, Name: vs.Name, Status: vs.Status}, nil
}

// UpdateVectorStore renames a store and resets its expiry window.
func (c *Client) UpdateVectorStore(ctx context.Context, vsID, name string, expiresDays int) error {
	_, err := c.api.ModifyVectorStore(ctx, vsID, openai.VectorStoreRequest{
		Name: name,
		ExpiresAfter: &openai.VectorStoreExpires{
			Anchor: ExpiresAnchorLastActive,
			Days:   expiresDays,
		},
	})
	if err != nil {
		return fmt.Errorf("update vector store %s: %w", vsID, err)
	}
	return nil
}

// DeleteVectorStore removes a store. A missing store counts as deleted.
func (c *Client) DeleteVectorStore(ctx context.Context, vsID string) error {
	resp, err := c.api.DeleteVectorStore(ctx, vsID)
	if err != nil {
		if isNotFound(err) {
			log.Printf("[openai] vector store %s already gone, skipping delete", vsID)
			return nil
		}
		return fmt.Errorf("delete vector store %s: %w", vsID, err)
	}
	if !resp.Deleted {
		return fmt.Errorf("delete vector store %s: API reported not deleted", vsID)
	}
	return nil
}

// DeleteVectorStoreFile removes one file entry from a store. A missing entry
// counts as deleted.
func (c *Client) DeleteVectorStoreFile(ctx context.Context, vsID, fileID string) error {
	if err := c.api.DeleteVectorStoreFile(ctx, vsID, fileID); err != nil {
		if isNotFound(err) {
			log.Printf("[openai] vector store %s has no file %s, skipping delete", vsID, fileID)
			return nil
		}
		return fmt.Errorf("delete vector store file %s/%s: %w", vsID, fileID, err)
	}
	return nil
}

// ListVectorStoreFiles pages through a store's file entries, 100 per page,
// using the last-seen id as cursor. statusFilter narrows the listing to files
// in one processing status ("failed", "in_progress", ...); empty lists all.
// The SDK's list call has no filter parameter, so filtered listings go through
// the raw API.
func (c *Client) ListVectorStoreFiles(ctx context.Context, vsID, statusFilter string) ([]VectorStoreFileInfo, error) {
	if statusFilter != "" {
		return c.listVectorStoreFilesRaw(ctx, vsID, statusFilter)
	}

	var files []VectorStoreFileInfo
	limit := listPageSize
	var after *string
	for {
		page, err := c.api.ListVectorStoreFiles(ctx, vsID, openai.Pagination{
			Limit: &limit,
			After: after,
		})
		if err != nil {
			return nil, fmt.Errorf("list vector store files %s: %w", vsID, err)
		}
		for _, f := range page.VectorStoreFiles {
			files = append(files, VectorStoreFileInfo{ID: f.ID, Status: f.Status})
		}
		if len(page.VectorStoreFiles) < limit {
			return files, nil
		}
		last := page.VectorStoreFiles[len(page.VectorStoreFiles)-1].ID
		after = &last
	}
}

func (c *Client) listVectorStoreFilesRaw(ctx context.Context, vsID, statusFilter string) ([]VectorStoreFileInfo, error) {
	var files []VectorStoreFileInfo
	after := ""
	for {
		q := url.Values{}
		q.Set("limit", fmt.Sprint(listPageSize))
		q.Set("filter", statusFilter)
		if after != "" {
			q.Set("after", after)
		}
		req, err := c.newRawRequest(ctx, http.MethodGet, "/vector_stores/"+vsID+"/files?"+q.Encode(), nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("list vector store files %s (filter=%s): %w", vsID, statusFilter, err)
		}
		var page struct {
			Data []VectorStoreFileInfo `json:"data"`
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("list vector store files %s (filter=%s): %s", vsID, statusFilter, string(body))
		}
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("list vector store files %s (filter=%s): decode: %w", vsID, statusFilter, err)
		}
		files = append(files, page.Data...)
		if len(page.Data) < listPageSize {
			return files, nil
		}
		after = page.Data[len(page.Data)-1].ID
	}
}

// CreateFileBatchAndPoll submits up to 100 file ids for indexing into a store
// and blocks until the batch reaches a terminal status or ctx expires. The API
// processes batches asynchronously; callers must bound the wait through ctx.
func (c *Client) CreateFileBatchAndPoll(ctx context.Context, vsID string, fileIDs []string) (BatchResult, error) {
	batch, err := c.api.CreateVectorStoreFileBatch(ctx, vsID, openai.VectorStoreFileBatchRequest{
		FileIDs: fileIDs,
	})
	if err != nil {
		return BatchResult{}, fmt.Errorf("create file batch (%d files) in %s: %w", len(fileIDs), vsID, err)
	}

	ticker := time.NewTicker(batchPollInterval)
	defer ticker.Stop()
	for batch.Status == "in_progress" || batch.Status == "cancelling" {
		select {
		case <-ctx.Done():
			return toBatchResult(batch), fmt.Errorf("poll file batch %s in %s: %w", batch.ID, vsID, ctx.Err())
		case <-ticker.C:
		}
		batch, err = c.api.RetrieveVectorStoreFileBatch(ctx, vsID, batch.ID)
		if err != nil {
			return BatchResult{}, fmt.Errorf("poll file batch in %s: %w", vsID, err)
		}
	}
	return toBatchResult(batch), nil
}

func toBatchResult(b openai.VectorStoreFileBatch) BatchResult {
	return BatchResult{
		Status:     b.Status,
		Completed:  b.FileCounts.Completed,
		InProgress: b.FileCounts.InProgress,
		Failed:     b.FileCounts.Failed,
		Cancelled:  b.FileCounts.Cancelled,
		Total:      b.FileCounts.Total,
	}
}
