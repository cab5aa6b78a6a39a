package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/jwall29/swiply/internal/config"
	"github.com/jwall29/swiply/internal/database"
	"github.com/jwall29/swiply/internal/presence"
	"github.com/jwall29/swiply/internal/realtime"
	postgresrepo "github.com/jwall29/swiply/internal/repository/postgres"
	"github.com/jwall29/swiply/internal/scheduler"
	"github.com/jwall29/swiply/internal/service"
	"github.com/jwall29/swiply/internal/transport/http/handlers"
	"github.com/jwall29/swiply/internal/transport/http/middleware"
	"github.com/jwall29/swiply/internal/transport/ws"
)

func main() {
	cfg := config.Load()

	// Database
	pool, err := database.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()
	log.Println("Connected to database")

	// Redis
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal(fmt.Errorf("connecting to redis: %w", err))
	}
	defer rdb.Close()
	log.Println("Connected to redis")

	// Repositories
	userRepo := postgresrepo.NewUserRepo(pool)
	requestRepo := postgresrepo.NewRequestRepo(pool)
	chatRepo := postgresrepo.NewChatRepo(pool)
	unreadRepo := postgresrepo.NewUnreadRepo(pool)
	proposalRepo := postgresrepo.NewProposalRepo(pool)
	reviewRepo := postgresrepo.NewReviewRepo(pool)

	// External task service
	tasks := scheduler.NewClient(cfg.TaskServiceURL)

	// Services
	authService := service.NewAuthService(userRepo, cfg.JWTSecret)
	chatService := service.NewChatService(chatRepo, unreadRepo, userRepo, presence.NewTracker(rdb))
	requestService := service.NewRequestService(requestRepo, reviewRepo, chatService, tasks)
	proposalService := service.NewProposalService(proposalRepo, requestRepo, chatService, tasks)
	reviewService := service.NewReviewService(reviewRepo, requestRepo)

	// Realtime fan-out: services publish to Redis, the bus feeds the
	// local WebSocket hub.
	bus := realtime.NewBus(rdb)
	defer bus.Close()
	chatService.SetNotifier(bus)
	requestService.SetNotifier(bus)
	proposalService.SetNotifier(bus)
	reviewService.SetNotifier(bus)

	hub := ws.NewHub()
	go hub.Run()
	go bus.Run(context.Background(), hub)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	requestHandler := handlers.NewRequestHandler(requestService)
	chatHandler := handlers.NewChatHandler(chatService)
	proposalHandler := handlers.NewProposalHandler(proposalService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	webhook := scheduler.NewWebhookHandler(requestService, cfg.TaskWebhookSecret)

	// Auth middleware
	auth := middleware.Auth(cfg.JWTSecret)

	// Routes
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)

	// Task service webhook (secret-authenticated, not JWT)
	mux.HandleFunc("POST /api/v1/tasks/update-request-status", webhook.UpdateRequestStatus)

	// Protected - Swipe Requests
	mux.Handle("POST /api/v1/requests", auth(http.HandlerFunc(requestHandler.Create)))
	mux.Handle("GET /api/v1/requests", auth(http.HandlerFunc(requestHandler.ListOpen)))
	mux.Handle("GET /api/v1/requests/mine", auth(http.HandlerFunc(requestHandler.ListMine)))
	mux.Handle("GET /api/v1/requests/{id}", auth(http.HandlerFunc(requestHandler.Get)))
	mux.Handle("PATCH /api/v1/requests/{id}", auth(http.HandlerFunc(requestHandler.Edit)))
	mux.Handle("POST /api/v1/requests/{id}/accept", auth(http.HandlerFunc(requestHandler.Accept)))
	mux.Handle("POST /api/v1/requests/{id}/cancel", auth(http.HandlerFunc(requestHandler.Cancel)))
	mux.Handle("POST /api/v1/requests/{id}/swiped", auth(http.HandlerFunc(requestHandler.MarkSwiped)))

	// Protected - Change Proposals
	mux.Handle("POST /api/v1/requests/{id}/proposals", auth(http.HandlerFunc(proposalHandler.Create)))
	mux.Handle("GET /api/v1/requests/{id}/proposals/pending", auth(http.HandlerFunc(proposalHandler.Pending)))
	mux.Handle("GET /api/v1/proposals/{id}", auth(http.HandlerFunc(proposalHandler.Get)))
	mux.Handle("POST /api/v1/proposals/{id}/accept", auth(http.HandlerFunc(proposalHandler.Accept)))
	mux.Handle("POST /api/v1/proposals/{id}/decline", auth(http.HandlerFunc(proposalHandler.Decline)))

	// Protected - Chat
	mux.Handle("GET /api/v1/chats", auth(http.HandlerFunc(chatHandler.ListRooms)))
	mux.Handle("GET /api/v1/chats/unread", auth(http.HandlerFunc(chatHandler.UnreadCounts)))
	mux.Handle("GET /api/v1/chats/{id}/messages", auth(http.HandlerFunc(chatHandler.History)))
	mux.Handle("POST /api/v1/chats/{id}/messages", auth(http.HandlerFunc(chatHandler.SendMessage)))
	mux.Handle("POST /api/v1/chats/{id}/read", auth(http.HandlerFunc(chatHandler.MarkRead)))
	mux.Handle("POST /api/v1/chats/{id}/open", auth(http.HandlerFunc(chatHandler.Open)))
	mux.Handle("POST /api/v1/chats/leave", auth(http.HandlerFunc(chatHandler.Leave)))

	// Protected - Reviews
	mux.Handle("POST /api/v1/requests/{id}/reviews", auth(http.HandlerFunc(reviewHandler.Submit)))
	mux.Handle("GET /api/v1/reviews/reminders", auth(http.HandlerFunc(reviewHandler.Reminders)))
	mux.Handle("GET /api/v1/users/{id}/rating", auth(http.HandlerFunc(reviewHandler.Stats)))

	// WebSocket
	mux.HandleFunc("GET /ws", ws.ServeWS(hub, cfg.JWTSecret))

	// Start server with CORS
	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("Starting server on %s", addr)
	log.Fatal(http.ListenAndServe(addr, middleware.CORS(mux)))
}
