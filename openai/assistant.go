package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
)

// AssistantVectorStoreIDs returns the vector stores attached to an
// assistant's file_search tool. An assistant without the file_search
// capability yields an empty list rather than an error. Goes through the raw
// API: the SDK's assistant types lag behind the v2 tool_resources shape.
func (c *Client) AssistantVectorStoreIDs(ctx context.Context, assistantID string) ([]string, error) {
	req, err := c.newRawRequest(ctx, http.MethodGet, "/assistants/"+assistantID, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("retrieve assistant %s: %w", assistantID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("retrieve assistant %s: %s", assistantID, string(respBody))
	}

	var a struct {
		ToolResources struct {
			FileSearch *struct {
				VectorStoreIDs []string `json:"vector_store_ids"`
			} `json:"file_search"`
		} `json:"tool_resources"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		return nil, fmt.Errorf("retrieve assistant %s: decode: %w", assistantID, err)
	}
	if a.ToolResources.FileSearch == nil {
		log.Printf("[openai] assistant %s has no file_search tool enabled", assistantID)
		return nil, nil
	}
	return a.ToolResources.FileSearch.VectorStoreIDs, nil
}

// SetAssistantVectorStore points the assistant's file_search tool at exactly
// one vector store.
func (c *Client) SetAssistantVectorStore(ctx context.Context, assistantID, vsID string) error {
	payload := map[string]any{
		"tool_resources": map[string]any{
			"file_search": map[string]any{
				"vector_store_ids": []string{vsID},
			},
		},
	}
	body, _ := json.Marshal(payload)

	req, err := c.newRawRequest(ctx, http.MethodPost, "/assistants/"+assistantID, strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("update assistant %s tool resources: %w", assistantID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("update assistant %s tool resources: %s", assistantID, string(respBody))
	}
	return nil
}
