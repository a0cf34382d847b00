package docsync

import (
	"context"
	"log"
	"time"

	"kbchat-backend/config"
)

// Scheduler periodically re-syncs every assistant that has a manifest URL
// configured. Failures are logged and do not affect the next cycle.
type Scheduler struct {
	cfg      *config.Config
	syncer   *Syncer
	interval time.Duration
}

func NewScheduler(cfg *config.Config, syncer *Syncer, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Scheduler{cfg: cfg, syncer: syncer, interval: interval}
}

// Run blocks until ctx is cancelled, triggering a sync pass every interval.
func (s *Scheduler) Run(ctx context.Context) {
	log.Printf("[docsync] scheduler started, interval %s", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Printf("[docsync] scheduler stopped")
			return
		case <-ticker.C:
			s.syncAll(ctx)
		}
	}
}

func (s *Scheduler) syncAll(ctx context.Context) {
	for typ, a := range s.cfg.Assistants {
		if a.LLMTxtURL == "" {
			continue
		}
		res, err := s.syncer.SyncAssistantFiles(ctx, a)
		if err != nil {
			log.Printf("[docsync] scheduled sync of %s failed: %v", typ, err)
			continue
		}
		log.Printf("[docsync] scheduled sync of %s: %d/%d files", typ, res.Uploaded, res.Found)
	}
}
