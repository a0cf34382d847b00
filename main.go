package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"kbchat-backend/chat"
	"kbchat-backend/config"
	"kbchat-backend/conn"
	"kbchat-backend/docsync"
	"kbchat-backend/migrations"
	"kbchat-backend/openai"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("[main] no .env file loaded, relying on process env")
	}

	cfgPath := os.Getenv("ASSISTANTS_CONFIG")
	if cfgPath == "" {
		cfgPath = "assistants.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[main] %v", err)
	}
	log.Printf("[main] loaded %d assistants from %s", len(cfg.Assistants), cfgPath)

	ai := openai.NewClient()

	// MySQL is optional: without it the service runs, but sync history and
	// feedback are not persisted.
	var runs *docsync.RunStore
	var feedback *chat.FeedbackStore
	if os.Getenv("DB_HOST") != "" {
		db, err := conn.NewMySQL()
		if err != nil {
			log.Fatalf("[main] mysql: %v", err)
		}
		migrations.Init(db)
		if err := migrations.Migrate(); err != nil {
			log.Fatalf("[main] migrate: %v", err)
		}
		runs = docsync.NewRunStore(db)
		feedback = chat.NewFeedbackStore(db)
	} else {
		log.Printf("[main] DB_HOST not set, running without persistence")
	}

	syncer := docsync.NewSyncer(ai, runs)

	r := gin.Default()
	chat.RegisterRoutes(r.Group("/chat"), cfg, ai, feedback)
	docsync.RegisterRoutes(r.Group("/admin"), cfg, syncer, runs)

	interval := 24 * time.Hour
	if v := os.Getenv("SYNC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			interval = d
		} else {
			log.Printf("[main] invalid SYNC_INTERVAL %q, using %s", v, interval)
		}
	}
	go docsync.NewScheduler(cfg, syncer, interval).Run(context.Background())

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	if err := r.Run(addr); err != nil {
		log.Fatalf("[main] server: %v", err)
	}
}
