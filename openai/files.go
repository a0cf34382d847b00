package openai

import (
	"context"
	"errors"
	"log"
	"net/http"
	"path/filepath"

	openai "github.com/sashabaranov/go-openai"
)

// PurposeAssistants is the storage purpose tag for files meant to be indexed
// into vector stores.
const PurposeAssistants = "assistants"

// UploadFile uploads a local file to remote storage and returns its file id.
func (c *Client) UploadFile(ctx context.Context, path, purpose string) (string, error) {
	f, err := c.api.CreateFile(ctx, openai.FileRequest{
		FileName: filepath.Base(path),
		FilePath: path,
		Purpose:  purpose,
	})
	if err != nil {
		return "", err
	}
	return f.ID, nil
}

// DeleteFile removes a file from remote storage. A missing file counts as a
// successful delete.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	if err := c.api.DeleteFile(ctx, fileID); err != nil {
		if isNotFound(err) {
			log.Printf("[openai] file %s already gone, skipping delete", fileID)
			return nil
		}
		return err
	}
	return nil
}

func isNotFound(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusNotFound
	}
	return false
}
