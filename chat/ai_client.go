package chat

import (
	"context"

	"kbchat-backend/openai"
)

// AIClient abstracts the OpenAI client for easier mocking in unit tests.
// Only the methods the chat handlers actually use are listed.
type AIClient interface {
	CreateThread(ctx context.Context) (string, error)
	AddThreadMessage(ctx context.Context, threadID, prompt string) error
	// StreamAssistantMessage runs the configured assistant against the thread
	// and yields ordered typed events until the remote stream completes.
	StreamAssistantMessage(ctx context.Context, threadID, assistantID string) (<-chan openai.StreamEvent, error)
	// StreamMessage is the non-Assistants fallback used when a run can't be
	// started.
	StreamMessage(ctx context.Context, prompt string) (<-chan string, error)
}
