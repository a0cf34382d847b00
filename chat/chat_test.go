package chat_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	chatpkg "kbchat-backend/chat"
	"kbchat-backend/config"
	openaipkg "kbchat-backend/openai"
)

type fakeAI struct {
	threadErr  error
	addErr     error
	streamErr  error
	events     []openaipkg.StreamEvent
	addedTo    []string
	fallbackTo []string
}

func (f *fakeAI) CreateThread(ctx context.Context) (string, error) {
	if f.threadErr != nil {
		return "", f.threadErr
	}
	return "thread_test123", nil
}

func (f *fakeAI) AddThreadMessage(ctx context.Context, threadID, prompt string) error {
	f.addedTo = append(f.addedTo, threadID)
	return f.addErr
}

func (f *fakeAI) StreamAssistantMessage(ctx context.Context, threadID, assistantID string) (<-chan openaipkg.StreamEvent, error) {
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	ch := make(chan openaipkg.StreamEvent)
	go func() {
		defer close(ch)
		for _, ev := range f.events {
			ch <- ev
		}
	}()
	return ch, nil
}

func (f *fakeAI) StreamMessage(ctx context.Context, prompt string) (<-chan string, error) {
	f.fallbackTo = append(f.fallbackTo, prompt)
	ch := make(chan string, 1)
	ch <- "fallback answer"
	close(ch)
	return ch, nil
}

func testConfig() *config.Config {
	return &config.Config{Assistants: map[string]config.Assistant{
		"docs": {ID: "asst_abc", Title: "Docs", Icon: "📚"},
	}}
}

func newRouter(ai chatpkg.AIClient) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	chatpkg.RegisterRoutes(r.Group("/chat"), testConfig(), ai, nil)
	return r
}

func TestStart(t *testing.T) {
	r := newRouter(&fakeAI{})
	req := httptest.NewRequest(http.MethodPost, "/chat/docs/start", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "thread_test123") {
		t.Fatalf("expected thread id in response, got %s", rec.Body.String())
	}
}

func TestStartFallsBackToLocalID(t *testing.T) {
	r := newRouter(&fakeAI{threadErr: errors.New("remote down")})
	req := httptest.NewRequest(http.MethodPost, "/chat/docs/start", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), `"thread_id":""`) {
		t.Fatal("expected a fallback thread id")
	}
}

func TestStartUnknownType(t *testing.T) {
	r := newRouter(&fakeAI{})
	req := httptest.NewRequest(http.MethodPost, "/chat/nope/start", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestMessageStreamsSSE(t *testing.T) {
	ai := &fakeAI{events: []openaipkg.StreamEvent{
		{Type: openaipkg.StreamTextDelta, Text: "Hello"},
		{Type: openaipkg.StreamToolCallCreated, Tool: "file_search"},
		{Type: openaipkg.StreamTextDelta, Text: " world"},
	}}
	r := newRouter(ai)
	req := httptest.NewRequest(http.MethodPost, "/chat/docs/message",
		strings.NewReader(`{"thread_id":"thread_abc","prompt":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{"data: Hello", "data: file_search", "data:  world", "data: [DONE]"} {
		if !strings.Contains(body, want) {
			t.Errorf("SSE body missing %q:\n%s", want, body)
		}
	}
	if len(ai.addedTo) != 1 || ai.addedTo[0] != "thread_abc" {
		t.Fatalf("expected message added to thread_abc, got %v", ai.addedTo)
	}
}

func TestMessageFallsBackWhenRunFails(t *testing.T) {
	ai := &fakeAI{streamErr: errors.New("run refused")}
	r := newRouter(ai)
	req := httptest.NewRequest(http.MethodPost, "/chat/docs/message",
		strings.NewReader(`{"thread_id":"thread_abc","prompt":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "fallback answer") {
		t.Fatalf("expected fallback stream, got %s", rec.Body.String())
	}
}

func TestMessageRequiresPrompt(t *testing.T) {
	r := newRouter(&fakeAI{})
	req := httptest.NewRequest(http.MethodPost, "/chat/docs/message",
		strings.NewReader(`{"thread_id":"thread_abc","prompt":"  "}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestFeedback(t *testing.T) {
	r := newRouter(&fakeAI{})
	req := httptest.NewRequest(http.MethodPost, "/chat/docs/feedback",
		strings.NewReader(`{"thread_id":"thread_abc","type":"thumbs","score":"👍","text":"useful"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}
