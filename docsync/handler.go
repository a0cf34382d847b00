package docsync

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"kbchat-backend/config"
)

// Handler exposes the sync pipeline over the admin HTTP surface.
type Handler struct {
	cfg    *config.Config
	syncer *Syncer
	runs   *RunStore
}

func NewHandler(cfg *config.Config, syncer *Syncer, runs *RunStore) *Handler {
	return &Handler{cfg: cfg, syncer: syncer, runs: runs}
}

// ListAssistants - GET /admin/assistants
func (h *Handler) ListAssistants(c *gin.Context) {
	type entry struct {
		Type        string `json:"type"`
		ID          string `json:"id"`
		Title       string `json:"title"`
		Icon        string `json:"icon"`
		Description string `json:"description"`
		Syncable    bool   `json:"syncable"`
	}
	out := []entry{}
	for typ, a := range h.cfg.Assistants {
		out = append(out, entry{
			Type:        typ,
			ID:          a.ID,
			Title:       a.Title,
			Icon:        a.Icon,
			Description: a.Description,
			Syncable:    a.LLMTxtURL != "",
		})
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// Sync - POST /admin/assistants/:type/sync
//
// Runs the full pipeline for one assistant and reports counts. Errors come
// back as a human-readable message; traces stay in the logs.
func (h *Handler) Sync(c *gin.Context) {
	typ := c.Param("type")
	cfg, ok := h.cfg.Get(typ)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown assistant type"})
		return
	}
	if cfg.LLMTxtURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no llm.txt URL configured for this assistant"})
		return
	}

	res, err := h.syncer.SyncAssistantFiles(c.Request.Context(), cfg)
	if err != nil {
		log.Printf("[docsync] sync %s failed: %v", typ, err)
		resp := gin.H{"error": "file sync failed: " + err.Error()}
		if res != nil {
			resp["result"] = res
		}
		c.JSON(http.StatusInternalServerError, resp)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "synced", "result": res})
}

// SyncRuns - GET /admin/assistants/:type/syncs
func (h *Handler) SyncRuns(c *gin.Context) {
	typ := c.Param("type")
	cfg, ok := h.cfg.Get(typ)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown assistant type"})
		return
	}
	if h.runs == nil {
		c.JSON(http.StatusOK, gin.H{"data": []Run{}})
		return
	}
	runs, err := h.runs.List(cfg.ID, 20)
	if err != nil {
		log.Printf("[docsync] list sync runs for %s: %v", typ, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load sync history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": runs})
}

// RegisterRoutes mounts the admin sync routes.
func RegisterRoutes(r *gin.RouterGroup, cfg *config.Config, syncer *Syncer, runs *RunStore) {
	h := NewHandler(cfg, syncer, runs)

	r.GET("/assistants", h.ListAssistants)
	r.POST("/assistants/:type/sync", h.Sync)
	r.GET("/assistants/:type/syncs", h.SyncRuns)
}
