package docsync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"kbchat-backend/openai"
)

// fakeAI is a scriptable in-memory stand-in for the OpenAI client. Zero value
// behaves like an assistant with no stores and a remote that always succeeds.
type fakeAI struct {
	mu sync.Mutex

	stores      []string // stores attached to the assistant
	storeFiles  map[string][]openai.VectorStoreFileInfo
	storeStatus map[string]string // defaults to "in_use"

	deleteStoreErr     map[string]error
	deleteStoreFileErr map[string]error // keyed "vsID/fileID"
	deleteFileErr      map[string]error
	uploadErr          map[string]error // keyed by path

	// scripted indexing behavior, consumed one entry per call; when the
	// script runs out, batches complete fully and failed listings are empty
	batchResults []openai.BatchResult
	failedLists  [][]openai.VectorStoreFileInfo

	// recordings
	createdStores     []string
	attached          []string
	deletedStores     []string
	deletedStoreFiles []string // "vsID/fileID"
	deletedFiles      []string
	updatedStores     []string
	uploadedPaths     []string
	batchCalls        [][]string
	listCalls         int

	uploadDelay time.Duration
	inFlight    int
	maxInFlight int
	nextFileID  int
}

func (f *fakeAI) AssistantVectorStoreIDs(_ context.Context, _ string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.stores...), nil
}

func (f *fakeAI) SetAssistantVectorStore(_ context.Context, _, vsID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attached = append(f.attached, vsID)
	f.stores = []string{vsID}
	return nil
}

func (f *fakeAI) CreateVectorStore(_ context.Context, name string, _ int) (openai.VectorStoreInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := fmt.Sprintf("vs_new_%d", len(f.createdStores))
	f.createdStores = append(f.createdStores, id)
	return openai.VectorStoreInfo{ID: id, Name: name}, nil
}

func (f *fakeAI) RetrieveVectorStore(_ context.Context, vsID string) (openai.VectorStoreInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status := f.storeStatus[vsID]
	if status == "" {
		status = "in_use"
	}
	return openai.VectorStoreInfo{ID: vsID, Status: status}, nil
}

func (f *fakeAI) UpdateVectorStore(_ context.Context, vsID, _ string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updatedStores = append(f.updatedStores, vsID)
	return nil
}

func (f *fakeAI) DeleteVectorStore(_ context.Context, vsID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.deleteStoreErr[vsID]; err != nil {
		return err
	}
	f.deletedStores = append(f.deletedStores, vsID)
	return nil
}

func (f *fakeAI) ListVectorStoreFiles(_ context.Context, vsID, statusFilter string) ([]openai.VectorStoreFileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if statusFilter != "" {
		if len(f.failedLists) == 0 {
			return nil, nil
		}
		head := f.failedLists[0]
		f.failedLists = f.failedLists[1:]
		return head, nil
	}
	return append([]openai.VectorStoreFileInfo(nil), f.storeFiles[vsID]...), nil
}

func (f *fakeAI) DeleteVectorStoreFile(_ context.Context, vsID, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := vsID + "/" + fileID
	if err := f.deleteStoreFileErr[key]; err != nil {
		return err
	}
	f.deletedStoreFiles = append(f.deletedStoreFiles, key)
	return nil
}

func (f *fakeAI) CreateFileBatchAndPoll(_ context.Context, _ string, fileIDs []string) (openai.BatchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls = append(f.batchCalls, append([]string(nil), fileIDs...))
	if len(f.batchResults) > 0 {
		head := f.batchResults[0]
		f.batchResults = f.batchResults[1:]
		return head, nil
	}
	return openai.BatchResult{
		Status:    openai.BatchStatusCompleted,
		Completed: len(fileIDs),
		Total:     len(fileIDs),
	}, nil
}

func (f *fakeAI) UploadFile(ctx context.Context, path, _ string) (string, error) {
	f.mu.Lock()
	if err := f.uploadErr[path]; err != nil {
		f.mu.Unlock()
		return "", err
	}
	if err := ctx.Err(); err != nil {
		f.mu.Unlock()
		return "", err
	}
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	delay := f.uploadDelay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight--
	f.nextFileID++
	f.uploadedPaths = append(f.uploadedPaths, path)
	return fmt.Sprintf("file_%d", f.nextFileID), nil
}

func (f *fakeAI) DeleteFile(_ context.Context, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.deleteFileErr[fileID]; err != nil {
		return err
	}
	f.deletedFiles = append(f.deletedFiles, fileID)
	return nil
}
