package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"huddle/infrastructure/cache"
	"huddle/infrastructure/db"
	"huddle/infrastructure/ws"
	httpDelivery "huddle/internal/delivery/http"
	"huddle/internal/delivery/websocket"
	"huddle/internal/repository"
	"huddle/internal/usecase"
	"huddle/pkg/jwt"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		fmt.Println("godotenv: error loading .env file")
	}

	ctx := context.Background()

	mongoUri := os.Getenv("MONGODB_URI")
	if mongoUri == "" {
		mongoUri = "mongodb://localhost:27017"
	}
	mongoDbName := os.Getenv("MONGODB_DATABASE")
	if mongoDbName == "" {
		mongoDbName = "huddle"
	}
	mongoStore, err := db.Connect(ctx, mongoUri, mongoDbName)
	if err != nil {
		log.Fatalf("mongodb: %v", err)
	}
	defer mongoStore.Close(ctx)

	log.Println("Connected to MongoDB")

	// Initialize repositories
	userRepo := repository.NewUserRepository(mongoStore.DB)
	chatRepo := repository.NewChatRepository(mongoStore.DB)
	messageRepo := repository.NewMessageRepository(mongoStore.DB)
	refreshTokenRepo := repository.NewRefreshTokenRepository(mongoStore.DB)

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "your-secret-key-change-this-in-production"
		log.Println("Warning: Using default JWT secret. Set JWT_SECRET in .env for production")
	}

	// Access token: 15 minutes, Refresh token: 30 days
	jwtManager := jwt.NewManager(jwtSecret, 15*time.Minute, 30*24*time.Hour)

	// Typing entries live for seconds, so sweep often.
	typingStore := cache.NewTTLStore(time.Second)
	defer typingStore.Close()

	// Initialize use cases
	authUc := usecase.NewAuthUsecase(userRepo, refreshTokenRepo, jwtManager)
	userUc := usecase.NewUserUsecase(userRepo)
	chatUc := usecase.NewChatUsecase(chatRepo, userRepo)
	messageUc := usecase.NewMessageUsecase(messageRepo, chatRepo, userRepo)
	presenceUc := usecase.NewPresenceUsecase(userRepo, typingStore)

	// Check if Redis is enabled
	redisAddr := os.Getenv("REDIS_ADDR")

	var hub ws.Hub
	if redisAddr != "" {
		serverId := os.Getenv("SERVER_ID")
		if serverId == "" {
			serverId = "server-1"
		}

		log.Printf("Using Redis hub at %s with server ID: %s", redisAddr, serverId)
		hub = ws.NewRedisHub(redisAddr, serverId)
	} else {
		log.Println("Using in-memory hub (single server)")
		hub = ws.NewMemoryHub()
	}

	// Initialize handlers
	websocketH := websocket.NewHandler(hub, authUc, userUc, chatUc, messageUc, presenceUc)
	httpH := httpDelivery.NewHttpHandler(chatUc, userUc)
	authH := httpDelivery.NewAuthHandler(authUc)
	authMiddleware := httpDelivery.NewAuthMiddleware(authUc)

	hub.SetOnUnregister(websocketH.HandleDisconnect)

	go hub.Run()

	log.Println("Websocket is running")

	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(corsMiddleware)

	httpDelivery.MapHttpRoutes(router, httpH, websocketH, authH, authMiddleware)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("HTTP server is running on :%s", port)

	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatal(err)
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "http://localhost:3000")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
