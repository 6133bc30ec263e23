package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adi-253/qqchat/internal/chatlog"
	"github.com/adi-253/qqchat/internal/config"
	"github.com/adi-253/qqchat/internal/handlers"
	ratelimit "github.com/adi-253/qqchat/internal/middleware"
	"github.com/adi-253/qqchat/internal/services"
	"github.com/adi-253/qqchat/internal/storage"
)

func main() {
	// Load configuration from environment
	cfg := config.Load()

	// Storage root shared by the log, side tables and attachments
	root := storage.NewRoot(cfg.DataDir)
	if err := root.Ensure(); err != nil {
		log.Fatalf("Failed to prepare data directory: %v", err)
	}
	store := chatlog.Open(root)
	log.Printf("Chat data directory: %s", root.Dir())

	// Start background cleanup worker
	cleanupService := services.NewCleanupService(
		chatlog.NewSweeper(root, cfg.Retention),
		cfg.SweepInterval,
		cfg.SweepCron,
	)
	go cleanupService.Start()

	r := newRouter(cfg, store)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("🚀 qqchat backend starting on %s", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}

// newRouter wires services and handlers onto a chi router.
func newRouter(cfg *config.Config, store *chatlog.Store) http.Handler {
	attachmentService := services.NewAttachmentService(store.Root, cfg.AttachmentMode, cfg.MaxAttachmentSize)
	messageService := services.NewMessageService(store, attachmentService)

	messageHandler := handlers.NewMessageHandler(messageService, cfg.MaxAttachmentSize)
	picHandler := handlers.NewPicHandler(attachmentService)
	healthHandler := handlers.NewHealthHandler(store)
	limiter := ratelimit.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	log.Printf("CORS allowed origins: %v", cfg.CorsOrigins)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/messages", func(r chi.Router) {
		r.Get("/", messageHandler.GetMessages)
		r.Get("/pic/{name}", picHandler.ServePic)

		// Writes are rate limited per client
		r.Group(func(r chi.Router) {
			r.Use(limiter.Handler)
			r.Post("/", messageHandler.SendMessage)
			r.Post("/revoke", messageHandler.RevokeMessage)
			r.Post("/react", messageHandler.ReactToMessage)
		})
	})

	return r
}
