package openai

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const apiBase = "https://api.openai.com/v1"

// Client wraps the OpenAI SDK client plus a raw http.Client for the few
// endpoints the SDK does not cover (filtered vector-store file listing,
// streamed assistant runs, assistant tool_resources updates).
type Client struct {
	api  *openai.Client
	key  string
	http *http.Client
	base string
}

func NewClient() *Client {
	key := sanitizeEnv(os.Getenv("OPENAI_API_KEY"))
	return &Client{
		api:  openai.NewClient(key),
		key:  key,
		http: &http.Client{Timeout: 5 * time.Minute},
		base: apiBase,
	}
}

// sanitizeEnv removes surrounding quotes and whitespace that sneak into env
// values copied from shell exports or .env files.
func sanitizeEnv(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}

func (c *Client) newRawRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("OpenAI-Beta", "assistants=v2")
	return req, nil
}

// CreateThread opens a new conversation thread and returns its id.
func (c *Client) CreateThread(ctx context.Context) (string, error) {
	thread, err := c.api.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return "", err
	}
	return thread.ID, nil
}

// AddThreadMessage appends a user message to a thread.
func (c *Client) AddThreadMessage(ctx context.Context, threadID, prompt string) error {
	_, err := c.api.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})
	return err
}

// StreamMessage streams a plain chat-completion answer. Used as a fallback
// when the Assistants flow is unavailable.
func (c *Client) StreamMessage(ctx context.Context, prompt string) (<-chan string, error) {
	model := sanitizeEnv(os.Getenv("CHAT_MODEL"))
	if model == "" {
		model = openai.GPT4o
	}
	stream, err := c.api.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, err
	}

	ch := make(chan string)

	go func() {
		defer stream.Close()
		defer close(ch)
		for {
			resp, err := stream.Recv()
			if err != nil {
				break
			}
			if len(resp.Choices) > 0 {
				select {
				case ch <- resp.Choices[0].Delta.Content:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}
