package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"desa-feedback-system/pkg/database"
	"desa-feedback-system/pkg/ledger"
	"desa-feedback-system/pkg/media"
	"desa-feedback-system/pkg/middleware"
	"desa-feedback-system/pkg/queue"
	"desa-feedback-system/services/api-service/auth"
	"desa-feedback-system/services/api-service/config"
	"desa-feedback-system/services/api-service/handlers"
	"desa-feedback-system/services/api-service/reconcile"
	"desa-feedback-system/services/api-service/store"
	"desa-feedback-system/services/api-service/upload"
)

func main() {
	cfg := config.Load()

	db, err := database.ConnectMongo(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("[ERROR] Failed to connect to MongoDB: %v", err)
	}
	log.Println("[OK] Connected to MongoDB")

	mediaStore, err := media.NewStore(cfg.Media)
	if err != nil {
		log.Fatalf("[ERROR] Failed to create media store: %v", err)
	}

	setupCtx, cancelSetup := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelSetup()

	if err := mediaStore.EnsureBucket(setupCtx); err != nil {
		log.Fatalf("[ERROR] Failed to prepare media bucket: %v", err)
	}
	log.Println("[OK] Media bucket ready")

	admins := store.NewMongoAdmins(db)
	if err := admins.EnsureIndexes(setupCtx); err != nil {
		log.Fatalf("[ERROR] Failed to create admin indexes: %v", err)
	}

	// Both the orphan ledger and the event queue are side channels: when
	// they are absent the API still serves.
	var orphanLedger *ledger.Ledger
	if cfg.PostgresDSN != "" {
		pg, err := database.ConnectPostgres(cfg.PostgresDSN)
		if err != nil {
			log.Printf("[WARN] Orphan ledger disabled, failed to connect to Postgres: %v", err)
		} else if orphanLedger, err = ledger.New(pg); err != nil {
			log.Printf("[WARN] Orphan ledger disabled, migration failed: %v", err)
			orphanLedger = nil
		} else {
			log.Println("[OK] Orphan ledger ready")
		}
	}

	var publisher *queue.Publisher
	if cfg.AMQPURI != "" {
		conn, ch, err := queue.ConnectRabbitMQ(cfg.AMQPURI)
		if err != nil {
			log.Printf("[WARN] Event publishing disabled, failed to connect to RabbitMQ: %v", err)
		} else {
			defer conn.Close()
			defer ch.Close()
			publisher = queue.NewPublisher(ch, cfg.QueueName)
			log.Println("[OK] Connected to RabbitMQ")
		}
	}

	app := &handlers.App{
		Admins:     admins,
		Laporan:    store.NewMongoLaporan(db),
		Pengumuman: store.NewMongoPengumuman(db),
		Uploader:   &upload.MediaUploader{Store: mediaStore},
		Cleaner:    reconcile.NewCleaner(mediaStore, orphanLedger),
		Tokens:     auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL),
		Publisher:  publisher,
		JWTSecret:  cfg.JWTSecret,
	}

	middleware.RegisterMetrics()
	handler := middleware.TraceMiddleware(
		middleware.MetricsMiddleware(
			middleware.LoggerMiddleware(app.Routes())))

	addr := ":" + cfg.Port
	log.Printf("[INFO] API Service running on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("[ERROR] Server failed: %v", err)
	}
}
