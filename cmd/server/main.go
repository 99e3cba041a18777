package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/loomchat/loom/internal/config"
	"github.com/loomchat/loom/internal/database"
	"github.com/loomchat/loom/internal/repository/postgres"
	"github.com/loomchat/loom/internal/service"
	"github.com/loomchat/loom/internal/transport/http/handlers"
	"github.com/loomchat/loom/internal/transport/http/middleware"
	"github.com/loomchat/loom/internal/transport/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// Database
	pool, err := database.Connect(context.Background(), cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()
	log.Println("Connected to database")

	if err := database.Migrate(context.Background(), pool); err != nil {
		log.Fatalf("unable to run migrations: %v", err)
	}

	store := postgres.NewStore(pool)

	// Services
	authService := service.NewAuthService(store, cfg.JWTSecret)
	userService := service.NewUserService(store)
	conversationService := service.NewConversationService(store)
	messageService := service.NewMessageService(store)
	threadService := service.NewThreadService(store)
	notificationService := service.NewNotificationService(store)

	// WebSocket hub
	hub := ws.NewHub()
	go hub.Run()
	messageService.SetNotifier(ws.NewHubNotifier(hub))

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	conversationHandler := handlers.NewConversationHandler(conversationService)
	messageHandler := handlers.NewMessageHandler(messageService, threadService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

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

	// Protected - Users
	mux.Handle("GET /api/v1/users/me", auth(http.HandlerFunc(userHandler.Me)))
	mux.Handle("DELETE /api/v1/users/me", auth(http.HandlerFunc(userHandler.DeleteMe)))

	// Protected - Conversations
	mux.Handle("POST /api/v1/conversations", auth(http.HandlerFunc(conversationHandler.Create)))
	mux.Handle("GET /api/v1/conversations", auth(http.HandlerFunc(conversationHandler.List)))
	mux.Handle("GET /api/v1/conversations/{id}", auth(http.HandlerFunc(conversationHandler.Get)))

	// Protected - Messages
	mux.Handle("POST /api/v1/conversations/{id}/messages", auth(http.HandlerFunc(messageHandler.Send)))
	mux.Handle("GET /api/v1/conversations/{id}/messages", auth(http.HandlerFunc(messageHandler.ListRoots)))
	mux.Handle("GET /api/v1/messages/{id}/thread", auth(http.HandlerFunc(messageHandler.Thread)))
	mux.Handle("GET /api/v1/messages/{id}/history", auth(http.HandlerFunc(messageHandler.History)))
	mux.Handle("PATCH /api/v1/messages/{id}", auth(http.HandlerFunc(messageHandler.Edit)))
	mux.Handle("DELETE /api/v1/messages/{id}", auth(http.HandlerFunc(messageHandler.Delete)))
	mux.Handle("GET /api/v1/messages/unread", auth(http.HandlerFunc(messageHandler.Unread)))
	mux.Handle("POST /api/v1/messages/read", auth(http.HandlerFunc(messageHandler.MarkRead)))

	// Protected - Notifications
	mux.Handle("GET /api/v1/notifications", auth(http.HandlerFunc(notificationHandler.List)))
	mux.Handle("POST /api/v1/notifications/read", auth(http.HandlerFunc(notificationHandler.MarkRead)))

	// WebSocket
	mux.HandleFunc("GET /ws", ws.ServeWS(hub, cfg.JWTSecret))

	// Start server with CORS
	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("Starting server on %s", addr)
	log.Fatal(http.ListenAndServe(addr, middleware.CORS(mux)))
}
