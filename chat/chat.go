package chat

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"kbchat-backend/config"
	"kbchat-backend/openai"
	"kbchat-backend/sse"
)

// Handler serves the chat surface: thread creation, message streaming and
// feedback capture for the configured assistants.
type Handler struct {
	cfg      *config.Config
	AI       AIClient
	feedback *FeedbackStore
}

// NewHandler builds the chat handler. feedback may be nil when feedback is
// only logged, not persisted.
func NewHandler(cfg *config.Config, ai AIClient, feedback *FeedbackStore) *Handler {
	return &Handler{cfg: cfg, AI: ai, feedback: feedback}
}

// Start - POST /chat/:type/start
func (h *Handler) Start(c *gin.Context) {
	typ := c.Param("type")
	asst, ok := h.cfg.Get(typ)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown assistant type"})
		return
	}

	threadID, err := h.AI.CreateThread(c)
	if err != nil {
		// Tolerate a failed remote call with a client-side id; the message
		// handler falls back to plain completion for these.
		log.Printf("[chat] create thread for %s: %v", typ, err)
		threadID = uuid.NewString()
	}
	c.JSON(http.StatusOK, gin.H{
		"thread_id":   threadID,
		"title":       asst.Title,
		"icon":        asst.Icon,
		"description": asst.Description,
	})
}

// Message - POST /chat/:type/message
//
// Posts the prompt to the thread and streams the assistant's reply over SSE.
func (h *Handler) Message(c *gin.Context) {
	typ := c.Param("type")
	asst, ok := h.cfg.Get(typ)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown assistant type"})
		return
	}

	var req struct {
		ThreadID string `json:"thread_id"`
		Prompt   string `json:"prompt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "thread_id and prompt required"})
		return
	}
	log.Printf("[chat] %s thread=%s prompt: %s", typ, req.ThreadID, req.Prompt)

	if strings.HasPrefix(req.ThreadID, "thread_") {
		if err := h.AI.AddThreadMessage(c, req.ThreadID, req.Prompt); err != nil {
			log.Printf("[chat] add message to thread %s: %v", req.ThreadID, err)
			h.streamFallback(c, req.Prompt)
			return
		}
		events, err := h.AI.StreamAssistantMessage(c, req.ThreadID, asst.ID)
		if err != nil {
			log.Printf("[chat] start run on thread %s: %v", req.ThreadID, err)
			h.streamFallback(c, req.Prompt)
			return
		}
		sse.Stream(c, renderEvents(c, events))
		return
	}

	// Non-Assistants thread ids (the uuid fallback from Start) go straight to
	// plain completion.
	h.streamFallback(c, req.Prompt)
}

func (h *Handler) streamFallback(c *gin.Context, prompt string) {
	stream, err := h.AI.StreamMessage(c, prompt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "the assistant is unavailable right now"})
		return
	}
	sse.Stream(c, stream)
}

// renderEvents flattens typed run events into displayable tokens: text deltas
// pass through, tool-call starts become a labelled marker line, tool-call
// deltas carry their incremental payload.
func renderEvents(ctx context.Context, events <-chan openai.StreamEvent) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		for ev := range events {
			var tok string
			switch ev.Type {
			case openai.StreamTextDelta, openai.StreamToolCallDelta:
				tok = ev.Text
			case openai.StreamToolCallCreated:
				tok = "\n" + ev.Tool + "\n"
			}
			if tok == "" {
				continue
			}
			select {
			case ch <- tok:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// Feedback - POST /chat/:type/feedback
func (h *Handler) Feedback(c *gin.Context) {
	if _, ok := h.cfg.Get(c.Param("type")); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown assistant type"})
		return
	}
	var req Feedback
	if err := c.ShouldBindJSON(&req); err != nil || req.Type == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid feedback payload"})
		return
	}
	log.Printf("[chat] feedback thread=%s type=%s score=%s text=%s", req.ThreadID, req.Type, req.Score, req.Text)
	if h.feedback != nil {
		h.feedback.Save(req)
	}
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

// RegisterRoutes mounts the chat routes.
func RegisterRoutes(r *gin.RouterGroup, cfg *config.Config, ai AIClient, feedback *FeedbackStore) {
	h := NewHandler(cfg, ai, feedback)

	r.POST("/:type/start", h.Start)
	r.POST("/:type/message", h.Message)
	r.POST("/:type/feedback", h.Feedback)
}
